package domain

import (
	"fmt"
	"strings"
)

type RecordID int64

// QARecord is the authoritative knowledge-base entry. The ordered record
// list owns these; everything derived (index entries, vectors) is rebuilt
// from it.
type QARecord struct {
	ID       RecordID `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
}

func (r QARecord) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("id must be positive")
	}
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("question is required")
	}
	if strings.TrimSpace(r.Answer) == "" {
		return fmt.Errorf("answer is required")
	}

	return nil
}

// NextRecordID returns the smallest id above every existing one. Ids are
// never reused within a process lifetime.
func NextRecordID(records []QARecord) RecordID {
	var max RecordID
	for _, record := range records {
		if record.ID > max {
			max = record.ID
		}
	}
	return max + 1
}

// Match is a search result above the acceptance threshold.
type Match struct {
	RecordID RecordID
	Score    float64
}
