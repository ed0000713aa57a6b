package api

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
)

// Accepted ranges of the observer and domain parameters.
const (
	minFieldSize = 1.0
	maxFieldSize = 10.0
	minAge       = 20
	maxAge       = 80
	minLow       = 390.0
	maxLow       = 400.0
	minHigh      = 700.0
	maxHigh      = 830.0
	minStep      = 0.1
	maxStep      = 5.0
)

// Flags accepted in the comma separated "optional" query parameter.
const (
	flagLog      = "log"
	flagBase     = "base"
	flagInfo     = "info"
	flagNorm     = "norm"
	flagSidemenu = "sidemenu"
)

var (
	observerFlags = []string{flagLog, flagBase, flagInfo, flagNorm, flagSidemenu}
	standardFlags = []string{flagLog, flagBase, flagInfo, flagNorm}
)

// parseFloat reads the first value of name. ok is false when the value is
// missing; err is set when it is present but not a finite number.
func parseFloat(v url.Values, name string) (f float64, ok bool, err error) {
	raw, present := v[name]
	if !present || len(raw) == 0 {
		return 0, false, nil
	}
	f, err = strconv.ParseFloat(strings.TrimSpace(raw[0]), 64)
	if err != nil {
		return 0, true, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, true, fmt.Errorf("%s: not a finite number", name)
	}
	return f, true, nil
}

// parseOptional returns the set of flags named by "optional". Every entry
// must be one of allowed.
func parseOptional(v url.Values, allowed []string) (map[string]bool, error) {
	flags := make(map[string]bool, len(allowed))
	raw, present := v["optional"]
	if !present || len(raw) == 0 {
		return flags, nil
	}
	for _, name := range strings.Split(raw[0], ",") {
		known := false
		for _, a := range allowed {
			if name == a {
				known = true
				break
			}
		}
		if !known {
			return nil, unprocessable("VALUE ERROR",
				fmt.Sprintf("Parameter list 'optional' contains unknown parameter '%s'.", name),
				"Check if the parameter has correct value, and try again. Alternatively, remove it if not.")
		}
		flags[name] = true
	}
	return flags, nil
}

func exclusiveToLMS(name string) *Error {
	return unprocessable("Value error",
		fmt.Sprintf("Invalid usage of '%s' for endpoint.", name),
		fmt.Sprintf("The '%s' parameter is exclusive to the /lms endpoint. Please remove it from the URL.", name))
}

func unsupported(name string) *Error {
	return unprocessable("Value error",
		fmt.Sprintf("Invalid usage of '%s' for endpoint.", name),
		fmt.Sprintf("This endpoint does not support %s. Please, verify this, and try again. If not, remove it from URL.", name))
}

// ParseParams validates the query of a request for q and returns the
// computation parameters. Failures are *Error values with status 422.
func ParseParams(q colorimetry.Quantity, v url.Values) (colorimetry.Params, error) {
	if q.Standard() {
		return parseStandard(q, v)
	}
	return parseObserver(q, v)
}

func parseObserver(q colorimetry.Quantity, v url.Values) (colorimetry.Params, error) {
	p := colorimetry.DefaultParams()

	var mandatory [2]float64
	for i, name := range []string{"field_size", "age"} {
		f, ok, err := parseFloat(v, name)
		if !ok || err != nil {
			return p, unprocessable("VALUE ERROR",
				fmt.Sprintf("Invalid input for '%s' either due to absence or invalid type", name),
				fmt.Sprintf("Control that '%s' is present, and is of the 'float' type.", name))
		}
		mandatory[i] = f
	}
	p.FieldSize = mandatory[0]
	// Half-way ages round to even, so 80.5 is accepted as 80.
	age := math.RoundToEven(mandatory[1])

	for _, o := range []struct {
		name string
		dst  *float64
	}{{"min", &p.Min}, {"max", &p.Max}, {"step_size", &p.Step}} {
		f, ok, err := parseFloat(v, o.name)
		if err != nil {
			return p, unprocessable("TYPE ERROR",
				fmt.Sprintf("Invalid input for '%s' due to invalid type", o.name),
				"Control that the value is of a 'float' type, or remove it to use default settings.")
		}
		if ok {
			*o.dst = f
		}
	}

	switch {
	case p.FieldSize < minFieldSize || p.FieldSize > maxFieldSize:
		return p, unprocessable("VALUE ERROR", "Invalid value for 'field_size'.",
			"Control that the value is between 1.0 and 10.0.")
	case age < minAge || age > maxAge:
		return p, unprocessable("VALUE ERROR", "Invalid value for 'age'",
			"Control that the value is between 20.0 and 80.0.")
	case p.Min < minLow || p.Min > maxLow:
		return p, unprocessable("VALUE ERROR", "Invalid value for 'min'-imum domain.",
			"Control that the value is between 390.0 and 400.0. Alternatively, remove it from URL.")
	case p.Max < minHigh || p.Max > maxHigh:
		return p, unprocessable("VALUE ERROR", "Invalid value for 'max'-imum domain.",
			"Control that the value is between 700.0 and 830.0.")
	case p.Step < minStep || p.Step > maxStep:
		return p, unprocessable("VALUE ERROR", "Invalid value for 'step size'",
			"Control that the value is between 0.1 and 5.0.")
	}
	p.Age = int(age)

	flags, err := parseOptional(v, observerFlags)
	if err != nil {
		return p, err
	}
	if flags[flagSidemenu] && flags[flagInfo] {
		return p, unprocessable("Value error", "Cannot combine parameters 'sidemenu' and 'info'.",
			"Please remove one of them from the URL.")
	}
	for _, name := range observerFlags {
		if !flags[name] {
			continue
		}
		switch name {
		case flagLog, flagBase:
			if q != colorimetry.LMS {
				return p, exclusiveToLMS(name)
			}
		case flagInfo:
			if !q.HasInfo() {
				return p, unsupported(name)
			}
		case flagNorm:
			if q == colorimetry.LMS || q == colorimetry.MacLeodBoynton || q == colorimetry.Maxwellian {
				return p, unsupported(name)
			}
		}
	}
	p.Log = flags[flagLog]
	p.Base = flags[flagBase]
	p.Info = flags[flagInfo]
	p.Norm = flags[flagNorm]
	return p, nil
}

func parseStandard(q colorimetry.Quantity, v url.Values) (colorimetry.Params, error) {
	p := colorimetry.DefaultParams()
	const suggestion = "Please make sure that the parameter is present as a float value that is either 2.0 or 10.0."

	f, ok, err := parseFloat(v, "field_size")
	if !ok || err != nil {
		return p, unprocessable("Value error", "The value of 'field_size' is not present.", suggestion)
	}
	p.FieldSize = f

	flags, err := parseOptional(v, standardFlags)
	if err != nil {
		return p, err
	}
	for _, name := range standardFlags {
		if !flags[name] {
			continue
		}
		switch name {
		case flagLog, flagBase:
			return p, exclusiveToLMS(name)
		case flagInfo:
			if !q.HasInfo() {
				return p, unsupported(name)
			}
		case flagNorm:
			return p, unsupported(name)
		}
	}
	p.Info = flags[flagInfo]

	if p.FieldSize != 2 && p.FieldSize != 10 {
		return p, unprocessable("Value error", "Invalid value for 'field_size'.", suggestion)
	}
	return p, nil
}
