package schedule

import "time"

type DependencyType string

const (
	FinishToStart  DependencyType = "finish_to_start"
	StartToStart   DependencyType = "start_to_start"
	FinishToFinish DependencyType = "finish_to_finish"
	StartToFinish  DependencyType = "start_to_finish"
)

func (t DependencyType) Valid() bool {
	switch t {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	}
	return false
}

// ParseDependencyType maps an external name onto a DependencyType. The empty
// string means finish_to_start.
func ParseDependencyType(s string) (DependencyType, bool) {
	if s == "" {
		return FinishToStart, true
	}
	t := DependencyType(s)
	return t, t.Valid()
}

// Dependency is a directed edge Source -> Target. LagDays may be negative
// (lead time).
type Dependency struct {
	ID       string         `yaml:"id" json:"id" toml:"id"`
	SourceID string         `yaml:"source_id" json:"sourceId" toml:"source_id"`
	TargetID string         `yaml:"target_id" json:"targetId" toml:"target_id"`
	Type     DependencyType `yaml:"type" json:"type" toml:"type"`
	LagDays  int            `yaml:"lag_days" json:"lagDays" toml:"lag_days"`
}

// placement returns where target must sit so that the relation to source
// holds. The target keeps its current duration.
func (d Dependency) placement(source, target Task) (start, end time.Time) {
	dur := target.Duration()
	switch d.Type {
	case StartToStart:
		start = source.Start.AddDate(0, 0, d.LagDays)
		end = start.Add(dur)
	case FinishToFinish:
		end = source.End.AddDate(0, 0, d.LagDays)
		start = end.Add(-dur)
	case StartToFinish:
		end = source.Start.AddDate(0, 0, d.LagDays)
		start = end.Add(-dur)
	default:
		start = source.End.AddDate(0, 0, d.LagDays)
		end = start.Add(dur)
	}
	return start, end
}
