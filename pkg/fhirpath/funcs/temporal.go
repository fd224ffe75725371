package funcs

import (
	"time"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

func init() {
	// Register temporal component functions, named per the *Of convention
	// (yearOf, monthOf, ...) so they don't collide with the year/month/...
	// pluralized unit keywords used in date arithmetic.
	Register(FuncDef{
		Name:    "yearOf",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnYear,
	})

	Register(FuncDef{
		Name:    "monthOf",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnMonth,
	})

	Register(FuncDef{
		Name:    "dayOf",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnDay,
	})

	Register(FuncDef{
		Name:    "hourOf",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnHour,
	})

	Register(FuncDef{
		Name:    "minuteOf",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnMinute,
	})

	Register(FuncDef{
		Name:    "secondOf",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnSecond,
	})

	Register(FuncDef{
		Name:    "millisecondOf",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnMillisecond,
	})

	Register(FuncDef{
		Name:    "lowBoundary",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnLowBoundary,
	})

	Register(FuncDef{
		Name:    "highBoundary",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnHighBoundary,
	})

	// utility.go registers now/today/timeOfDay too; its init() runs after
	// this one (files initialize in name order), so its entries replace these.
	Register(FuncDef{
		Name:    "now",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnNowReal,
	})

	Register(FuncDef{
		Name:    "today",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnTodayReal,
	})

	Register(FuncDef{
		Name:    "timeOfDay",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnTimeOfDayReal,
	})
}

// fnYear returns the year component.
func fnYear(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	switch v := input.Items[0].(type) {
	case types.Date:
		return types.Of(types.NewInteger(int64(v.Year()))), nil
	case types.DateTime:
		return types.Of(types.NewInteger(int64(v.Year()))), nil
	default:
		return types.Empty(), nil
	}
}

// fnMonth returns the month component.
func fnMonth(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	switch v := input.Items[0].(type) {
	case types.Date:
		if v.Month() == 0 {
			return types.Empty(), nil
		}
		return types.Of(types.NewInteger(int64(v.Month()))), nil
	case types.DateTime:
		if v.Month() == 0 {
			return types.Empty(), nil
		}
		return types.Of(types.NewInteger(int64(v.Month()))), nil
	default:
		return types.Empty(), nil
	}
}

// fnDay returns the day component.
func fnDay(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	switch v := input.Items[0].(type) {
	case types.Date:
		if v.Day() == 0 {
			return types.Empty(), nil
		}
		return types.Of(types.NewInteger(int64(v.Day()))), nil
	case types.DateTime:
		if v.Day() == 0 {
			return types.Empty(), nil
		}
		return types.Of(types.NewInteger(int64(v.Day()))), nil
	default:
		return types.Empty(), nil
	}
}

// fnHour returns the hour component.
func fnHour(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	switch v := input.Items[0].(type) {
	case types.DateTime:
		return types.Of(types.NewInteger(int64(v.Hour()))), nil
	case types.Time:
		return types.Of(types.NewInteger(int64(v.Hour()))), nil
	default:
		return types.Empty(), nil
	}
}

// fnMinute returns the minute component.
func fnMinute(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	switch v := input.Items[0].(type) {
	case types.DateTime:
		return types.Of(types.NewInteger(int64(v.Minute()))), nil
	case types.Time:
		return types.Of(types.NewInteger(int64(v.Minute()))), nil
	default:
		return types.Empty(), nil
	}
}

// fnSecond returns the second component.
func fnSecond(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	switch v := input.Items[0].(type) {
	case types.DateTime:
		return types.Of(types.NewInteger(int64(v.Second()))), nil
	case types.Time:
		return types.Of(types.NewInteger(int64(v.Second()))), nil
	default:
		return types.Empty(), nil
	}
}

// fnMillisecond returns the millisecond component.
func fnMillisecond(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	switch v := input.Items[0].(type) {
	case types.DateTime:
		return types.Of(types.NewInteger(int64(v.Millisecond()))), nil
	case types.Time:
		return types.Of(types.NewInteger(int64(v.Millisecond()))), nil
	default:
		return types.Empty(), nil
	}
}

// fnLowBoundary returns the earliest instant consistent with a partial
// Date/DateTime, filling every component below its precision with its
// minimum value.
func fnLowBoundary(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	switch v := input.Items[0].(type) {
	case types.Date:
		return types.Of(v.LowBoundary()), nil
	case types.DateTime:
		return types.Of(v.LowBoundary()), nil
	default:
		return types.Empty(), nil
	}
}

// fnHighBoundary returns the latest instant consistent with a partial
// Date/DateTime, filling every component below its precision with its
// maximum value.
func fnHighBoundary(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	switch v := input.Items[0].(type) {
	case types.Date:
		return types.Of(v.HighBoundary()), nil
	case types.DateTime:
		return types.Of(v.HighBoundary()), nil
	default:
		return types.Empty(), nil
	}
}

// fnNowReal returns the current datetime.
func fnNowReal(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Of(types.NewDateTimeFromTime(time.Now())), nil
}

// fnTodayReal returns the current date.
func fnTodayReal(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Of(types.NewDateFromTime(time.Now())), nil
}

// fnTimeOfDayReal returns the current time.
func fnTimeOfDayReal(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Of(types.NewTimeFromGoTime(time.Now())), nil
}
