package service

import (
	"context"
	"encoding/csv"
	"hunt_backend/internal/model"
	"hunt_backend/internal/repository"
	"io"
	"strconv"
)

const ExportDelimiter = '|'

var ExportHeader = []string{
	"First name",
	"Last name",
	"Town",
	"Location",
	"Question",
	"Accepted answer",
	"Answer",
	"Evaluation score",
}

type ExportService struct {
	ExportRepo *repository.ExportRepository
}

func NewExportService(exportRepo *repository.ExportRepository) *ExportService {
	return &ExportService{ExportRepo: exportRepo}
}

// ExportRecord turns a finalized row into export columns.
func ExportRecord(row repository.ExportRow) []string {
	accepted := ""
	if variants := model.SplitVariants(row.AcceptedAnswerText); len(variants) > 0 {
		accepted = variants[0]
	}
	submitted := row.SubmittedText
	if submitted == model.NoAnswerText {
		submitted = model.NoAnswerExportText
	}
	return []string{
		row.FirstName,
		row.LastName,
		row.Town,
		row.LocationName,
		row.QuestionText,
		accepted,
		submitted,
		strconv.Itoa(row.EvaluationScore),
	}
}

// WriteCSV writes the header and every finalized answer, returning the row count.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.ExportRepo.ListFinalized(ctx)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	writer.Comma = ExportDelimiter
	if err := writer.Write(ExportHeader); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := writer.Write(ExportRecord(row)); err != nil {
			return 0, err
		}
	}
	writer.Flush()
	return len(rows), writer.Error()
}
