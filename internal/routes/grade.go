package routes

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bouldering grades are compared on the V scale. VB is -1; Fontainebleau
// grades are mapped to their usual V equivalent.
var fontToV = map[string]float64{
	"4":   0,
	"4+":  0,
	"5":   1,
	"5+":  2,
	"6A":  3,
	"6A+": 3,
	"6B":  4,
	"6B+": 4,
	"6C":  5,
	"6C+": 5,
	"7A":  6,
	"7A+": 7,
	"7B":  8,
	"7B+": 8,
	"7C":  9,
	"7C+": 10,
	"8A":  11,
	"8A+": 12,
	"8B":  13,
	"8B+": 14,
	"8C":  15,
	"8C+": 16,
	"9A":  17,
}

// ParseGrade converts a grade label to its V-scale value.
//
// Accepted forms: "VB", "V0".."V17", "V4+" (adds a quarter grade), "V4/5"
// (the midpoint), and Fontainebleau grades such as "6A+" or "f7B", case
// insensitive.
func ParseGrade(label string) (float64, error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return math.NaN(), fmt.Errorf("empty grade")
	}

	if strings.HasPrefix(s, "V") {
		return parseV(s[1:], label)
	}

	s = strings.TrimPrefix(s, "F")
	if v, ok := fontToV[s]; ok {
		return v, nil
	}
	return math.NaN(), fmt.Errorf("unknown grade %q", label)
}

func parseV(s, label string) (float64, error) {
	if s == "B" {
		return -1, nil
	}
	if lo, hi, ok := strings.Cut(s, "/"); ok {
		a, errA := strconv.Atoi(lo)
		b, errB := strconv.Atoi(hi)
		if errA != nil || errB != nil || b != a+1 {
			return math.NaN(), fmt.Errorf("invalid grade range %q", label)
		}
		return float64(a) + 0.5, nil
	}
	plus := strings.HasSuffix(s, "+")
	s = strings.TrimSuffix(s, "+")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 17 {
		return math.NaN(), fmt.Errorf("invalid V grade %q", label)
	}
	v := float64(n)
	if plus {
		v += 0.25
	}
	return v, nil
}

// FormatV renders a V-scale value as a label, rounding down to the whole
// grade.
func FormatV(v float64) string {
	switch {
	case math.IsNaN(v):
		return "?"
	case v < 0:
		return "VB"
	default:
		return "V" + strconv.Itoa(int(math.Floor(v)))
	}
}
