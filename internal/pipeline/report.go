package pipeline

// Outcome is what happened to one publisher during a publish call.
type Outcome int

const (
	// Skipped publishers declined the event in ShouldPublishEvent.
	Skipped Outcome = iota
	// Unavailable publishers reported false or failed in IsAvailable.
	Unavailable
	// Delivered publishers returned from Publish without error.
	Delivered
	// Failed publishers were eligible but failed after the availability
	// check, or were not reached because the context ended.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Unavailable:
		return "unavailable"
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// PublisherOutcome records the result for one publisher.
type PublisherOutcome struct {
	Publisher string
	Outcome   Outcome
	Err       error
}

// PublishReport is the detailed result of a publish call.
type PublishReport struct {
	CatalogID string
	Key       string
	TagID     string
	// Resolved is true when the key mapped to a valid model.
	Resolved bool
	Outcomes []PublisherOutcome
}

// Count returns how many publishers ended with o.
func (r *PublishReport) Count(o Outcome) int {
	n := 0
	for _, po := range r.Outcomes {
		if po.Outcome == o {
			n++
		}
	}
	return n
}

// Result applies policy to the report.
func (r *PublishReport) Result(policy Policy) bool {
	if !r.Resolved {
		return false
	}
	switch policy {
	case AllDelivered:
		return r.Count(Delivered) > 0 && r.Count(Failed) == 0
	case Attempted:
		return true
	default:
		return r.Count(Delivered) > 0
	}
}
