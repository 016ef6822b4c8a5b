package logging

// fieldValue flattens values the encoders would otherwise render as {}.
func fieldValue(v any) any {
	switch val := v.(type) {
	case error:
		return val.Error()
	case interface{ String() string }:
		return val.String()
	default:
		return v
	}
}

func logParamsToZapParams(keys map[ExtraKey]any) []any {
	params := make([]any, 0, len(keys)*2)

	for k, v := range keys {
		params = append(params, string(k), fieldValue(v))
	}

	return params
}

func logParamsToZeroParams(keys map[ExtraKey]any) map[string]any {
	params := make(map[string]any, len(keys))

	for k, v := range keys {
		params[string(k)] = fieldValue(v)
	}

	return params
}
