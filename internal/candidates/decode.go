package candidates

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ToInitial decodes a first-pass response and checks the shortlist contract.
func ToInitial(raw string) ([]Initial, error) {
	objects, err := decodeArray(raw)
	if err != nil {
		return nil, err
	}

	for i, obj := range objects {
		if err := requireKeys(obj, initialRequired, fmt.Sprintf("[%d]", i)); err != nil {
			return nil, err
		}
	}

	out := []Initial{}
	if err := decodeInto(objects, &out); err != nil {
		return nil, err
	}

	if err := runChecks(initialChecks(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// ToFinal decodes a second-pass response; every id must come from initial.
func ToFinal(raw string, initial []Initial) ([]Final, error) {
	objects, err := decodeArray(raw)
	if err != nil {
		return nil, err
	}

	for i, obj := range objects {
		path := fmt.Sprintf("[%d]", i)
		if err := requireKeys(obj, finalRequired, path); err != nil {
			return nil, err
		}

		questions, ok := obj["interviewQuestions"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s.interviewQuestions is not an object", ErrSchemaViolation, path)
		}
		if err := requireKeys(questions, questionsRequired, path+".interviewQuestions"); err != nil {
			return nil, err
		}
	}

	out := []Final{}
	if err := decodeInto(objects, &out); err != nil {
		return nil, err
	}

	if err := runChecks(finalChecks(out, initial)); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeArray(raw string) ([]map[string]any, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrSchemaViolation)
	}

	var objects []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &objects); err != nil {
		return nil, fmt.Errorf("%w: expected an array of objects: %w", ErrSchemaViolation, err)
	}
	return objects, nil
}

func requireKeys(obj map[string]any, keys []string, path string) error {
	if obj == nil {
		return fmt.Errorf("%w: %s is null", ErrSchemaViolation, path)
	}
	for _, key := range keys {
		if v, ok := obj[key]; !ok || v == nil {
			return fmt.Errorf("%w: %s.%s is required", ErrSchemaViolation, path, key)
		}
	}
	return nil
}

func decodeInto(input any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(nullElementHook, integralFloatHook),
		WeaklyTypedInput: false,
		Result:           result,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}
	return nil
}

// nullElementHook rejects null entries in JSON arrays; mapstructure would decode them as zero values.
func nullElementHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Slice || to.Kind() != reflect.Slice {
		return data, nil
	}

	items, ok := data.([]any)
	if !ok {
		return data, nil
	}
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("element %d is null", i)
		}
	}
	return data, nil
}

// integralFloatHook refuses to truncate fractional JSON numbers into int fields.
func integralFloatHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float64 || to.Kind() != reflect.Int {
		return data, nil
	}

	f := data.(float64)
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("expected an integer, got %v", f)
	}
	return int(f), nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
