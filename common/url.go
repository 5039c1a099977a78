package common

import "net/url"

// QueryParams keeps the first value of each query parameter. Nil when there
// are none.
func QueryParams(params url.Values) map[string]string {
	if len(params) == 0 {
		return nil
	}
	result := make(map[string]string, len(params))
	for key, values := range params {
		if len(values) > 0 {
			result[key] = values[0]
		}
	}
	return result
}
