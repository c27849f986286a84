package probe

import "testing"

func attemptsOf(kinds ...ResultKind) []Attempt {
	attempts := make([]Attempt, len(kinds))
	for i, k := range kinds {
		attempts[i] = Attempt{Number: i + 1, Result: k}
	}
	return attempts
}

func TestAnalyzeErrorPattern(t *testing.T) {
	tests := []struct {
		name  string
		kinds []ResultKind
		want  string
	}{
		{
			name:  "no attempts",
			kinds: nil,
			want:  "",
		},
		{
			name:  "consistent refusals",
			kinds: []ResultKind{ResultConnectionRefused, ResultConnectionRefused, ResultConnectionRefused},
			want:  "consistent_connectionrefused",
		},
		{
			name:  "consistent success",
			kinds: []ResultKind{ResultSuccess},
			want:  "consistent_success",
		},
		{
			name:  "consistent dns",
			kinds: []ResultKind{ResultDNSFailed, ResultDNSFailed},
			want:  "consistent_dnsfailed",
		},
		{
			name:  "timeout escalation beats refusal tail",
			kinds: []ResultKind{ResultConnectionRefused, ResultTimeout, ResultTimeout, ResultTimeout},
			want:  PatternTimeoutEscalation,
		},
		{
			name:  "persistent refusal tail",
			kinds: []ResultKind{ResultTimeout, ResultConnectionRefused, ResultConnectionRefused},
			want:  PatternPersistentRefusal,
		},
		{
			name:  "mostly successful",
			kinds: []ResultKind{ResultSuccess, ResultTimeout, ResultSuccess, ResultSuccess},
			want:  PatternIntermittentSuccess,
		},
		{
			name:  "exactly half successful is not intermittent",
			kinds: []ResultKind{ResultSuccess, ResultTimeout, ResultSuccess, ResultDNSFailed},
			want:  PatternMixedErrors,
		},
		{
			name:  "grab bag",
			kinds: []ResultKind{ResultTimeout, ResultDNSFailed, ResultUnknownError},
			want:  PatternMixedErrors,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnalyzeErrorPattern(attemptsOf(tt.kinds...)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name        string
		final       ResultKind
		failureRate float64
		avgMs       float64
		want        string
	}{
		{"healthy", ResultSuccess, 0.0, 50, ActionHealthy},
		{"unstable wins over slow", ResultSuccess, 0.5, 1500, ActionUnstable},
		{"slow", ResultSuccess, 0.1, 1500, ActionSlow},
		{"timeout", ResultTimeout, 1.0, 0, ActionCheckLatency},
		{"refused", ResultConnectionRefused, 1.0, 0, ActionServiceDown},
		{"unreachable", ResultNetworkUnreachable, 1.0, 0, ActionCheckNetwork},
		{"dns", ResultDNSFailed, 1.0, 0, ActionCheckDNS},
		{"unknown", ResultUnknownError, 1.0, 0, ActionInvestigate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recommend(tt.final, tt.failureRate, tt.avgMs); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
