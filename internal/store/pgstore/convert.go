package pgstore

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Conversions between catalog's pointer-optional fields and pgtype values.
// A nil pointer is always written as NULL.

func textParam(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func textValue(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func int4Param(i *int) (pgtype.Int4, error) {
	if i == nil {
		return pgtype.Int4{}, nil
	}
	if *i < math.MinInt32 || *i > math.MaxInt32 {
		return pgtype.Int4{}, fmt.Errorf("%d out of int4 range", *i)
	}
	return pgtype.Int4{Int32: int32(*i), Valid: true}, nil
}

func int4Value(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func boolParam(b *bool) pgtype.Bool {
	if b == nil {
		return pgtype.Bool{}
	}
	return pgtype.Bool{Bool: *b, Valid: true}
}

func boolValue(v pgtype.Bool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}

// numericParam goes through the decimal string so 0.1 is stored as 0.1
// rather than its binary float expansion.
func numericParam(f *float64) pgtype.Numeric {
	var n pgtype.Numeric
	if f == nil {
		return n
	}
	if err := n.Scan(strconv.FormatFloat(*f, 'f', -1, 64)); err != nil {
		return pgtype.Numeric{}
	}
	return n
}

func numericValue(n pgtype.Numeric) *float64 {
	if !n.Valid {
		return nil
	}
	f8, err := n.Float64Value()
	if err != nil || !f8.Valid {
		return nil
	}
	f := f8.Float64
	return &f
}

const dateLayout = "2006-01-02"

func dateParam(s string) pgtype.Date {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

func dateValue(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}
