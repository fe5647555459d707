package pgstore

import (
	"math"
	"testing"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 0.1, 12.5, 1234.99, -3} {
		got := numericValue(numericParam(&f))
		if got == nil {
			t.Fatalf("numericValue(numericParam(%v)) = nil", f)
		}
		if *got != f {
			t.Errorf("round trip %v = %v", f, *got)
		}
	}

	if n := numericParam(nil); n.Valid {
		t.Error("numericParam(nil) should be NULL")
	}
}

func TestOptionalParams(t *testing.T) {
	hpNull, err := int4Param(nil)
	if err != nil {
		t.Fatalf("int4Param(nil) error = %v", err)
	}
	if textParam(nil).Valid || hpNull.Valid || boolParam(nil).Valid {
		t.Error("nil pointers should encode as NULL")
	}

	s, i, b := "holo", 120, false
	if v := textValue(textParam(&s)); v == nil || *v != s {
		t.Errorf("text round trip = %v", v)
	}
	hp, err := int4Param(&i)
	if err != nil {
		t.Fatalf("int4Param(%d) error = %v", i, err)
	}
	if v := int4Value(hp); v == nil || *v != i {
		t.Errorf("int round trip = %v", v)
	}
	if v := boolValue(boolParam(&b)); v == nil || *v != b {
		t.Errorf("bool round trip = %v", v)
	}
}

func TestInt4ParamRange(t *testing.T) {
	tests := []struct {
		in      int
		wantErr bool
	}{
		{in: 0},
		{in: math.MaxInt32},
		{in: math.MinInt32},
		{in: math.MaxInt32 + 1, wantErr: true},
		{in: math.MinInt32 - 1, wantErr: true},
		{in: 4294967306, wantErr: true},
	}

	for _, tt := range tests {
		v, err := int4Param(&tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("int4Param(%d) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			if v.Valid {
				t.Errorf("int4Param(%d) = %+v on error, want NULL", tt.in, v)
			}
			continue
		}
		if int(v.Int32) != tt.in {
			t.Errorf("int4Param(%d) = %d", tt.in, v.Int32)
		}
	}
}

func TestDate(t *testing.T) {
	if got := dateValue(dateParam("1999-01-09")); got != "1999-01-09" {
		t.Errorf("date round trip = %q", got)
	}
	if dateParam("09/01/1999").Valid {
		t.Error("non-ISO dates should be NULL")
	}
}
