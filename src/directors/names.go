package directors

import (
	"fmt"
	"regexp"
	"strings"

	"mockmongo/src/engine"
	"mockmongo/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidateCollectionName applies the driver's collection naming rules.
func ValidateCollectionName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: collection names cannot be empty", models.ErrInvalidName)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: collection names cannot contain an empty segment ('..')", models.ErrInvalidName)
	case strings.HasPrefix(name, ".") || strings.HasSuffix(name, "."):
		return fmt.Errorf("%w: collection names must not start or end with '.'", models.ErrInvalidName)
	case strings.Contains(name, "$"):
		return fmt.Errorf("%w: collection names must not contain '$'", models.ErrInvalidName)
	case strings.Contains(name, "\x00"):
		return fmt.Errorf("%w: collection names must not contain the null character", models.ErrInvalidName)
	}
	return nil
}

// nameMatcher decides whether a collection name passes a listing filter.
type nameMatcher func(name string) bool

// compileNameFilter supports filters on the "name" field only: a plain
// value, or an operator document using $eq, $ne, $in, $nin or $regex.
func compileNameFilter(filter bson.M) (nameMatcher, error) {
	if len(filter) == 0 {
		return func(string) bool { return true }, nil
	}

	var matchers []nameMatcher
	for field, condition := range filter {
		if field != "name" {
			return nil, models.Unsupported("listing filter on field %q", field)
		}
		matcher, err := compileNameCondition(condition)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, matcher)
	}

	return func(name string) bool {
		for _, m := range matchers {
			if !m(name) {
				return false
			}
		}
		return true
	}, nil
}

func compileNameCondition(condition interface{}) (nameMatcher, error) {
	switch c := condition.(type) {
	case string:
		return func(name string) bool { return name == c }, nil
	case primitive.Regex:
		return compileRegex(c.Pattern, c.Options)
	case *regexp.Regexp:
		return c.MatchString, nil
	case bson.M:
		return compileNameOperators(c)
	}
	return nil, models.Unsupported("listing filter value of type %T", condition)
}

func compileNameOperators(ops bson.M) (nameMatcher, error) {
	var matchers []nameMatcher
	options, _ := ops["$options"].(string)

	for op, arg := range ops {
		var matcher nameMatcher
		var err error

		switch op {
		case "$eq":
			matcher, err = compileNameCondition(arg)
		case "$ne":
			var eq nameMatcher
			eq, err = compileNameCondition(arg)
			if err == nil {
				matcher = func(name string) bool { return !eq(name) }
			}
		case "$in", "$nin":
			var in nameMatcher
			in, err = compileNameSet(arg)
			if err == nil && op == "$nin" {
				matcher = func(name string) bool { return !in(name) }
			} else {
				matcher = in
			}
		case "$regex":
			switch pattern := arg.(type) {
			case string:
				matcher, err = compileRegex(pattern, options)
			case primitive.Regex:
				matcher, err = compileRegex(pattern.Pattern, pattern.Options)
			default:
				err = fmt.Errorf("%w: $regex has to be a string", models.ErrInvalidArgumentType)
			}
		case "$options":
			continue
		default:
			return nil, models.Unsupported("listing filter operator %s", op)
		}

		if err != nil {
			return nil, err
		}
		matchers = append(matchers, matcher)
	}

	return func(name string) bool {
		for _, m := range matchers {
			if !m(name) {
				return false
			}
		}
		return true
	}, nil
}

func compileNameSet(arg interface{}) (nameMatcher, error) {
	var values []interface{}
	switch a := arg.(type) {
	case bson.A:
		values = a
	case []interface{}:
		values = a
	case []string:
		for _, s := range a {
			values = append(values, s)
		}
	default:
		return nil, fmt.Errorf("%w: $in needs an array", models.ErrInvalidArgumentType)
	}

	var matchers []nameMatcher
	for _, v := range values {
		m, err := compileNameCondition(v)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return func(name string) bool {
		for _, m := range matchers {
			if m(name) {
				return true
			}
		}
		return false
	}, nil
}

// compileRegex honours the i, m and s flags; any other flag is unsupported.
func compileRegex(pattern, options string) (nameMatcher, error) {
	flags := ""
	for _, o := range options {
		switch o {
		case 'i', 'm', 's':
			flags += string(o)
		default:
			return nil, models.Unsupported("regex option %q", o)
		}
	}
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regex %q: %v", models.ErrInvalidArgumentValue, pattern, err)
	}
	return re.MatchString, nil
}

// filterNames keeps the names passing filter.
func filterNames(names []string, filter bson.M) ([]string, error) {
	matches, err := compileNameFilter(filter)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(names))
	for _, name := range names {
		if matches(name) {
			result = append(result, name)
		}
	}
	return result, nil
}

// collectionSpec describes a collection the way listCollections reports it.
func collectionSpec(c *engine.Collection) bson.M {
	return bson.M{
		"name":    c.Name(),
		"type":    "collection",
		"options": bson.M{},
		"info": bson.M{
			"readOnly": false,
			"uuid":     c.ID(),
		},
		"idIndex": bson.M{
			"v":    int32(2),
			"key":  bson.M{models.IDField: int32(1)},
			"name": models.IDIndexName,
		},
	}
}
