package dataprocessing

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	apperrors "sigitm/internal/errors"
)

var filenameTimestampPattern = regexp.MustCompile(`\d{6}_\d{4}`)

// LoadTimestamp is the generation time embedded in an export filename
type LoadTimestamp struct {
	Time     time.Time
	Date     string // 2006-01-02
	DateTime string // 2006-01-02 15:04
}

// ExtractLoadTimestamp finds the first DDMMYY_HHMM token in the file name
// (extension excluded) and parses it.
func ExtractLoadTimestamp(path string) (LoadTimestamp, error) {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	token := filenameTimestampPattern.FindString(stem)
	if token == "" {
		return LoadTimestamp{}, apperrors.NewTimestampError(
			"date pattern not found in "+stem, apperrors.ErrTimestampPatternNotFound)
	}

	ts, err := time.Parse(FilenameTimestampLayout, token)
	if err != nil {
		return LoadTimestamp{}, apperrors.NewTimestampError(
			"invalid date token "+token+" in "+stem, apperrors.ErrTimestampParse).
			WithContext("parse_error", err.Error())
	}

	return LoadTimestamp{
		Time:     ts,
		Date:     ts.Format(DisplayDateLayout),
		DateTime: ts.Format(DisplayDateTimeLayout),
	}, nil
}
