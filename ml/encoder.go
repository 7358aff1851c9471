package ml

import (
	"errors"
	"fmt"
	"sort"
)

// LabelEncoder maps a finite set of string labels onto dense integer codes
// 0..k-1. It is fitted once during training and frozen afterwards: serving
// reuses the exact fitted encoder from the artifact, never a refit one.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// FitLabels builds an encoder from the observed labels. Codes are assigned
// by sorted order, so fitting is independent of input order.
func FitLabels(labels []string) (*LabelEncoder, error) {
	if len(labels) == 0 {
		return nil, errors.New("no labels to fit")
	}
	seen := make(map[string]struct{}, len(labels))
	classes := make([]string, 0, len(labels))
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		classes = append(classes, label)
	}
	sort.Strings(classes)
	return &LabelEncoder{Classes: classes}, nil
}

// Encode returns the code for a label. Unseen labels are an error, never a
// silent default: a miss after input validation means the artifact and the
// vocabulary are out of sync.
func (e *LabelEncoder) Encode(label string) (int, error) {
	idx := sort.SearchStrings(e.Classes, label)
	if idx >= len(e.Classes) || e.Classes[idx] != label {
		return 0, fmt.Errorf("label %q not in fitted vocabulary", label)
	}
	return idx, nil
}

// Decode returns the label for a code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("code %d out of range [0, %d)", code, len(e.Classes))
	}
	return e.Classes[code], nil
}

// Contains reports whether the label is in the fitted vocabulary.
func (e *LabelEncoder) Contains(label string) bool {
	_, err := e.Encode(label)
	return err == nil
}

// Cardinality returns the number of fitted classes.
func (e *LabelEncoder) Cardinality() int {
	return len(e.Classes)
}
