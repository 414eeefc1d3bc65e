package model

// Float returns a pointer to v. Used to fill optional PricePoint fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
