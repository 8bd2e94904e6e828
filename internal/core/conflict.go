package core

import "fmt"

// Decision is the operator's resolution for one conflict group.
type Decision string

const (
	// DecisionExcludeOne removes the last active record of the group.
	DecisionExcludeOne Decision = "exclude-one"
	// DecisionKeepAll keeps every record and closes the group.
	DecisionKeepAll Decision = "keep-all"
)

// IsValid reports whether the decision is one of the defined actions.
func (d Decision) IsValid() bool {
	return d == DecisionExcludeOne || d == DecisionKeepAll
}

// ConflictKey identifies a duplicate group by its shared (date, amount)
// pair. Both parts are canonical strings so the key is comparable and
// survives persistence round-trips unchanged.
type ConflictKey struct {
	Date   string
	Amount string
}

// Key returns the record's conflict-group key. Records with an
// unparseable date share the empty date key.
func (r Record) Key() ConflictKey {
	date := ""
	if !r.Date.IsEmpty() {
		date = r.Date.Format("2006-01-02")
	}
	return ConflictKey{Date: date, Amount: r.Amount.String()}
}

func (k ConflictKey) String() string {
	return fmt.Sprintf("%s|%s", k.Date, k.Amount)
}

// ConflictGroup is a set of records sharing one ConflictKey. Members are
// kept in normalized identity order. A group is only presented to the
// operator while at least two members are still active (not excluded).
type ConflictGroup struct {
	Key     ConflictKey
	Members []Record
}
