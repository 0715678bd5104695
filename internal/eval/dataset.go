package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadDataset reads a JSON list of records from disk. Every record must have
// a question; records without an id get a positional one.
func LoadDataset(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse dataset JSON: %w", err)
	}

	for i := range records {
		if strings.TrimSpace(records[i].Question) == "" {
			return nil, fmt.Errorf("dataset record %d: missing question", i)
		}
		if records[i].ID == "" {
			records[i].ID = fmt.Sprintf("case_%02d", i+1)
		}
	}
	return records, nil
}

// SaveDataset writes records as indented JSON, creating parent directories.
func SaveDataset(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dataset file: %w", err)
	}
	return nil
}

// LoadKnowledgeBase reads a plain text file and splits it into passages on
// blank lines, preserving order.
func LoadKnowledgeBase(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base file: %w", err)
	}
	return SplitPassages(string(data)), nil
}

// SplitPassages splits a text blob into passages separated by blank lines.
func SplitPassages(text string) []string {
	var passages []string
	for _, chunk := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			passages = append(passages, chunk)
		}
	}
	return passages
}

// SaveReport writes a report as indented JSON, creating parent directories.
func SaveReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

// LoadReport reads a report previously written by SaveReport.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report JSON: %w", err)
	}
	return &report, nil
}

// DefaultDataset is a small built-in clinic question set, useful for smoke
// runs without an external dataset file.
func DefaultDataset() []Record {
	return []Record{
		{
			ID:             "clinic_01",
			Question:       "When does the clinic open?",
			ExpectedAnswer: "The clinic opens at 8am on weekdays.",
		},
		{
			ID:             "clinic_02",
			Question:       "Do you accept walk-ins?",
			ExpectedAnswer: "Yes, walk-ins are accepted on Mondays.",
		},
		{
			ID:             "clinic_03",
			Question:       "How do I book an appointment?",
			ExpectedAnswer: "Appointments can be booked by phone or through the patient portal.",
		},
		{
			ID:             "clinic_04",
			Question:       "How long do prescription refills take?",
			ExpectedAnswer: "Prescription refills take two business days.",
		},
		{
			ID:             "clinic_05",
			Question:       "What should I bring to my first visit?",
			ExpectedAnswer: "Bring a photo ID and your insurance card to your first visit.",
		},
	}
}

// DefaultKnowledgeBase is the built-in passage set matching DefaultDataset.
func DefaultKnowledgeBase() []string {
	return []string{
		"The clinic opens at 8am and closes at 6pm, Monday through Friday. On Saturdays the clinic is open from 9am to 1pm.",
		"Walk-ins are accepted on Mondays. On all other days an appointment is required.",
		"Appointments can be booked by phone at 555-0142 or through the patient portal. Cancellations require 24 hours notice.",
		"Prescription refills take two business days. Urgent refill requests should go through the pharmacy directly.",
		"New patients should bring a photo ID and their insurance card to the first visit, and arrive 15 minutes early to complete registration forms.",
		"The clinic does not provide emergency care. In an emergency, call 112 or go to the nearest emergency department.",
	}
}
