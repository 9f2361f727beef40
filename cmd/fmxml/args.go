package main

import (
	"strings"

	"github.com/hatlonely/fmxml/query"
	"github.com/pkg/errors"
)

var searchOptions = map[string]query.SearchOption{
	"eq":  query.Equals,
	"cn":  query.Contains,
	"bw":  query.BeginsWith,
	"ew":  query.EndsWith,
	"gt":  query.GreaterThan,
	"gte": query.GreaterOrEqual,
	"lt":  query.LessThan,
	"lte": query.LessOrEqual,
	"neq": query.NotEqual,
}

func parseAssignment(arg string) (string, string, error) {
	field, value, ok := strings.Cut(arg, "=")
	if !ok || field == "" {
		return "", "", errors.Errorf("expected field=value, got %q", arg)
	}
	return field, value, nil
}

// parseFieldArg Price.gt=10 拆分为字段、匹配方式与值，后缀不是已知匹配方式时视为字段名的一部分
func parseFieldArg(arg string) (string, query.SearchOption, string, error) {
	field, value, err := parseAssignment(arg)
	if err != nil {
		return "", "", "", err
	}
	if i := strings.LastIndexByte(field, '.'); i > 0 {
		if op, ok := searchOptions[strings.ToLower(field[i+1:])]; ok {
			return field[:i], op, value, nil
		}
	}
	return field, query.DefaultSearchMode, value, nil
}

// parseCriterion or:Name=Gadget 与 omit:Status=Closed
func parseCriterion(arg string) (query.SearchCriterion, error) {
	var c query.SearchCriterion
	switch {
	case strings.HasPrefix(arg, "or:"):
		c.Or, arg = true, arg[len("or:"):]
	case strings.HasPrefix(arg, "omit:"):
		c.Omit, arg = true, arg[len("omit:"):]
	}
	field, value, err := parseAssignment(arg)
	if err != nil {
		return c, err
	}
	c.Field, c.Value = field, value
	return c, nil
}

func parseSort(s string) (string, query.SortOrder) {
	if i := strings.LastIndexByte(s, ':'); i > 0 {
		switch order := strings.ToLower(s[i+1:]); order {
		case "ascend", "asc":
			return s[:i], query.Ascend
		case "descend", "desc":
			return s[:i], query.Descend
		}
	}
	return s, query.Ascend
}
