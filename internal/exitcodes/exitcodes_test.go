package exitcodes

import "testing"

func TestFor(t *testing.T) {
	tests := []struct {
		name                                     string
		launchFailed, pollsExhausted, jobsFailed bool
		want                                     int
	}{
		{"clean", false, false, false, Success},
		{"launch failure", true, false, false, RuntimeErr},
		{"polls exhausted", false, true, false, RuntimeErr},
		{"failed run", false, false, true, RunFailure},
		{"failed run outranks launch failure", true, true, true, RunFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := For(tc.launchFailed, tc.pollsExhausted, tc.jobsFailed); got != tc.want {
				t.Errorf("For() = %d, want %d", got, tc.want)
			}
		})
	}
}
