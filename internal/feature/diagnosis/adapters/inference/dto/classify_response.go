// Package dto は推論サービスのレスポンスを表すデータ転送オブジェクトを定義します。
//
// 推論サービスのレスポンス形式は固定されていないため、既知の別名キーを順に探して
// ClassifyResponse に詰め替えます。ここでは値の範囲検証は行いません。
package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedPayload はレスポンスを分類結果として解釈できないことを表します。
var ErrMalformedPayload = errors.New("malformed classification payload")

var (
	labelKeys       = []string{"className", "class_name", "class", "label", "prediction", "predicted_class"}
	confidenceKeys  = []string{"confidence", "score", "probability"}
	detectionKeys   = []string{"detections", "boxes"}
	boxKeys         = []string{"box", "bbox"}
	dimensionKeys   = []string{"imageDimensions", "image_dimensions", "dimensions", "image_size"}
	alternativeKeys = []string{"alternatives", "top_predictions", "predictions"}
)

// Box は推論ピクセル空間の矩形です。
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Detection は1つの検出領域です。
type Detection struct {
	Box        Box
	Confidence *float64
}

// Alternative は候補クラスの1つです。
type Alternative struct {
	ClassName  string
	Confidence float64
}

// Dimensions は推論空間の画像寸法です。
type Dimensions struct {
	Width  float64
	Height float64
}

// ClassifyResponse は正規化前の推論レスポンスです。
type ClassifyResponse struct {
	ClassName    string
	Confidence   *float64 // レスポンスに含まれない場合はnil
	Detections   []Detection
	Dimensions   *Dimensions
	Alternatives []Alternative
}

// FromLabel はクラス名だけのレスポンス（text/plain）を ClassifyResponse に変換します。
func FromLabel(label string) (*ClassifyResponse, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: empty label", ErrMalformedPayload)
	}
	return &ClassifyResponse{ClassName: label}, nil
}

// Parse はJSONレスポンスを ClassifyResponse に変換します。
// 受け付ける形式はクラス名の文字列、またはクラス名を含むオブジェクトです。
func Parse(body []byte) (*ClassifyResponse, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	if body[0] == '"' {
		var label string
		if err := json.Unmarshal(body, &label); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return FromLabel(label)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	label, ok := stringField(obj, labelKeys)
	if !ok || strings.TrimSpace(label) == "" {
		return nil, fmt.Errorf("%w: missing class name", ErrMalformedPayload)
	}

	resp := &ClassifyResponse{ClassName: label}

	if raw, ok := firstField(obj, confidenceKeys); ok {
		v, err := parseNumber(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: confidence: %v", ErrMalformedPayload, err)
		}
		resp.Confidence = &v
	}

	if raw, ok := firstField(obj, detectionKeys); ok {
		dets, err := parseDetections(raw)
		if err != nil {
			return nil, err
		}
		resp.Detections = dets
	}

	dims, err := parseDimensions(obj)
	if err != nil {
		return nil, err
	}
	resp.Dimensions = dims

	alts, err := parseAlternatives(obj)
	if err != nil {
		return nil, err
	}
	resp.Alternatives = alts

	return resp, nil
}

func firstField(obj map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		raw, ok := obj[k]
		if ok && !isNull(raw) {
			return raw, true
		}
	}
	return nil, false
}

func stringField(obj map[string]json.RawMessage, keys []string) (string, bool) {
	raw, ok := firstField(obj, keys)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// parseNumber は数値または数値文字列を受け付けます。
func parseNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseDetections(raw json.RawMessage) ([]Detection, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: detections: %v", ErrMalformedPayload, err)
	}

	out := make([]Detection, 0, len(items))
	for i, item := range items {
		box, err := parseBox(item)
		if err != nil {
			return nil, fmt.Errorf("%w: detection %d: %v", ErrMalformedPayload, i, err)
		}
		d := Detection{Box: box}
		if c, ok := firstField(item, confidenceKeys); ok {
			v, err := parseNumber(c)
			if err != nil {
				return nil, fmt.Errorf("%w: detection %d confidence: %v", ErrMalformedPayload, i, err)
			}
			d.Confidence = &v
		}
		out = append(out, d)
	}
	return out, nil
}

// parseBox は {"box": {...}}、{"bbox": [x1,y1,x2,y2]}、フラットな x1..y2 のいずれかを受け付けます。
func parseBox(item map[string]json.RawMessage) (Box, error) {
	raw, ok := firstField(item, boxKeys)
	if !ok {
		return boxFromObject(item)
	}

	var arr []float64
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) != 4 {
			return Box{}, fmt.Errorf("box needs 4 coordinates, got %d", len(arr))
		}
		return Box{X1: arr[0], Y1: arr[1], X2: arr[2], Y2: arr[3]}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Box{}, fmt.Errorf("box: %v", err)
	}
	return boxFromObject(obj)
}

func boxFromObject(obj map[string]json.RawMessage) (Box, error) {
	var vals [4]float64
	for i, k := range []string{"x1", "y1", "x2", "y2"} {
		raw, ok := obj[k]
		if !ok {
			return Box{}, fmt.Errorf("missing %s", k)
		}
		v, err := parseNumber(raw)
		if err != nil {
			return Box{}, fmt.Errorf("%s: %v", k, err)
		}
		vals[i] = v
	}
	return Box{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}, nil
}

func parseDimensions(obj map[string]json.RawMessage) (*Dimensions, error) {
	if raw, ok := firstField(obj, dimensionKeys); ok {
		var arr []float64
		if err := json.Unmarshal(raw, &arr); err == nil {
			if len(arr) != 2 {
				return nil, fmt.Errorf("%w: dimensions need [width,height]", ErrMalformedPayload)
			}
			return &Dimensions{Width: arr[0], Height: arr[1]}, nil
		}
		var dims map[string]json.RawMessage
		if err := json.Unmarshal(raw, &dims); err != nil {
			return nil, fmt.Errorf("%w: dimensions: %v", ErrMalformedPayload, err)
		}
		return dimensionsFrom(dims, "width", "height")
	}

	if _, ok := obj["image_width"]; ok {
		return dimensionsFrom(obj, "image_width", "image_height")
	}
	return nil, nil
}

func dimensionsFrom(obj map[string]json.RawMessage, wKey, hKey string) (*Dimensions, error) {
	wRaw, wok := obj[wKey]
	hRaw, hok := obj[hKey]
	if !wok || !hok {
		return nil, fmt.Errorf("%w: dimensions need %s and %s", ErrMalformedPayload, wKey, hKey)
	}
	w, err := parseNumber(wRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, wKey, err)
	}
	h, err := parseNumber(hRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, hKey, err)
	}
	return &Dimensions{Width: w, Height: h}, nil
}

func parseAlternatives(obj map[string]json.RawMessage) ([]Alternative, error) {
	if raw, ok := firstField(obj, alternativeKeys); ok {
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: alternatives: %v", ErrMalformedPayload, err)
		}
		out := make([]Alternative, 0, len(items))
		for i, item := range items {
			name, ok := stringField(item, labelKeys)
			if !ok {
				return nil, fmt.Errorf("%w: alternative %d: missing class name", ErrMalformedPayload, i)
			}
			alt := Alternative{ClassName: name}
			if c, ok := firstField(item, confidenceKeys); ok {
				v, err := parseNumber(c)
				if err != nil {
					return nil, fmt.Errorf("%w: alternative %d confidence: %v", ErrMalformedPayload, i, err)
				}
				alt.Confidence = v
			}
			out = append(out, alt)
		}
		return out, nil
	}

	if raw, ok := obj["probabilities"]; ok && !isNull(raw) {
		var probs map[string]float64
		if err := json.Unmarshal(raw, &probs); err != nil {
			return nil, fmt.Errorf("%w: probabilities: %v", ErrMalformedPayload, err)
		}
		out := make([]Alternative, 0, len(probs))
		for name, p := range probs {
			out = append(out, Alternative{ClassName: name, Confidence: p})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
		return out, nil
	}
	return nil, nil
}
