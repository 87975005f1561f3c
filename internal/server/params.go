package server

import (
	"net/url"
	"strings"

	"github.com/ashita-ai/runexport/internal/model"
)

// paramKind says how a query parameter appeared in the URL.
type paramKind int

const (
	paramAbsent paramKind = iota
	paramSingle
	paramMultiple
)

// paramValue is a query parameter as a sum type: absent, one value, or a
// repeated parameter. Validation switches on the kind explicitly instead of
// guessing from url.Values.Get.
type paramValue struct {
	kind   paramKind
	values []string
}

func paramFrom(q url.Values, key string) paramValue {
	vs, ok := q[key]
	switch {
	case !ok || len(vs) == 0:
		return paramValue{kind: paramAbsent}
	case len(vs) == 1:
		return paramValue{kind: paramSingle, values: vs}
	default:
		return paramValue{kind: paramMultiple, values: vs}
	}
}

// first returns the first value, or "" when absent.
func (p paramValue) first() string {
	if p.kind == paramAbsent {
		return ""
	}
	return p.values[0]
}

// invalidInputError is a request validation failure, answered with 422.
type invalidInputError struct {
	msg string
}

func (e *invalidInputError) Error() string { return e.msg }

// parseExportParams validates GET /export query parameters.
func parseExportParams(q url.Values) (model.ExportParams, error) {
	appID := paramFrom(q, "appId")
	if appID.kind != paramSingle {
		return model.ExportParams{}, &invalidInputError{msg: model.ErrMsgInvalidAppID}
	}

	models := paramFrom(q, "models")
	tags := paramFrom(q, "tags")
	if models.kind == paramMultiple || tags.kind == paramMultiple {
		return model.ExportParams{}, &invalidInputError{msg: model.ErrMsgDelimitedFilters}
	}

	return model.ExportParams{
		AppID:      appID.first(),
		Search:     paramFrom(q, "search").first(),
		Models:     listParam(models),
		Tags:       listParam(tags),
		ExportType: paramFrom(q, "exportType").first(),
	}, nil
}

// listParam turns a comma-delimited filter into its tokens. Only an absent
// parameter means "no filter"; a present value, even "", always filters.
func listParam(p paramValue) []string {
	if p.kind == paramAbsent {
		return []string{}
	}
	return splitList(p.first())
}

// splitList splits a comma-delimited value into trimmed tokens. Empty tokens
// are kept, so "a,,b" yields three entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
