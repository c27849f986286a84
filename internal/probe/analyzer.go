package probe

// Remediation action labels attached to every endpoint result.
const (
	ActionHealthy      = "connection_healthy"
	ActionUnstable     = "connection_unstable_consider_alternative"
	ActionSlow         = "connection_slow_consider_optimization"
	ActionCheckLatency = "check_network_latency_increase_timeout"
	ActionServiceDown  = "service_may_be_down_check_service_status"
	ActionCheckNetwork = "check_network_configuration"
	ActionCheckDNS     = "check_dns_configuration_try_alternative_dns"
	ActionInvestigate  = "investigate_network_connectivity"
)

// Qualitative error pattern labels.
const (
	PatternTimeoutEscalation   = "timeout_escalation"
	PatternPersistentRefusal   = "persistent_refusal"
	PatternIntermittentSuccess = "intermittent_success"
	PatternMixedErrors         = "mixed_errors"
)

// AnalyzeErrorPattern labels the attempt sequence of a completed probe.
// Rules are checked in precedence order; the first match wins.
func AnalyzeErrorPattern(attempts []Attempt) string {
	if len(attempts) == 0 {
		return ""
	}

	consistent := true
	successes := 0
	for _, a := range attempts {
		if a.Result != attempts[0].Result {
			consistent = false
		}
		if a.Result == ResultSuccess {
			successes++
		}
	}
	if consistent {
		return "consistent_" + attempts[0].Result.patternToken()
	}

	if tailIs(attempts, 3, ResultTimeout) {
		return PatternTimeoutEscalation
	}
	if tailIs(attempts, 2, ResultConnectionRefused) {
		return PatternPersistentRefusal
	}
	if successes*2 > len(attempts) {
		return PatternIntermittentSuccess
	}
	return PatternMixedErrors
}

func tailIs(attempts []Attempt, n int, kind ResultKind) bool {
	if len(attempts) < n {
		return false
	}
	for _, a := range attempts[len(attempts)-n:] {
		if a.Result != kind {
			return false
		}
	}
	return true
}

// Recommend maps the final outcome and aggregate metrics of a probe to a
// remediation action.
func Recommend(final ResultKind, failureRate, avgResponseTimeMs float64) string {
	switch final {
	case ResultSuccess:
		switch {
		case failureRate > 0.3:
			return ActionUnstable
		case avgResponseTimeMs > 1000:
			return ActionSlow
		default:
			return ActionHealthy
		}
	case ResultTimeout:
		return ActionCheckLatency
	case ResultConnectionRefused:
		return ActionServiceDown
	case ResultNetworkUnreachable:
		return ActionCheckNetwork
	case ResultDNSFailed:
		return ActionCheckDNS
	default:
		return ActionInvestigate
	}
}
