package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/safelens/veriscan/internal/config"
)

// hfShape names the response structures the inference API is known to
// return. classifyShape resolves one of these; anything else is malformed.
type hfShape int

const (
	hfShapeUnknown           hfShape = iota
	hfShapeLabeledScorePairs         // {"labels": [...], "scores": [...]}
	hfShapeTopLabelObjects           // [{"label": ..., "score": ...}, ...]
)

// ZeroShotClassifier is the zero-shot label text agent. It calls a hosted
// inference endpoint with candidate labels and keeps the top one. Its
// contribution is recorded with weight 0 under the current policy.
type ZeroShotClassifier struct {
	httpClient *http.Client
	token      string
	model      string
	baseURL    string
	labels     []string
}

func NewZeroShotClassifier(cfg config.HFConfig, timeout time.Duration) (*ZeroShotClassifier, error) {
	if cfg.Token == "" {
		return nil, &CredentialError{Agent: NameZeroShot, EnvVar: "HF_TOKEN"}
	}
	return &ZeroShotClassifier{
		httpClient: &http.Client{Timeout: timeout},
		token:      cfg.Token,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		labels:     Categories,
	}, nil
}

func (c *ZeroShotClassifier) Name() string { return NameZeroShot }

type hfRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters map[string]any  `json:"parameters"`
	Options    map[string]bool `json:"options"`
}

func (c *ZeroShotClassifier) Classify(ctx context.Context, in Input) (Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Result{}, &UpstreamError{Agent: NameZeroShot, Msg: "empty text input"}
	}

	body, err := json.Marshal(hfRequest{
		Inputs:     text,
		Parameters: map[string]any{"candidate_labels": c.labels},
		Options:    map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return Result{}, &UpstreamError{Agent: NameZeroShot, Msg: "request encode failed", Err: err}
	}

	url := c.baseURL + "/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, &UpstreamError{Agent: NameZeroShot, Msg: "request build failed", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, &UpstreamError{Agent: NameZeroShot, Msg: "inference call failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &UpstreamError{Agent: NameZeroShot, Msg: "response read failed", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &UpstreamError{
			Agent: NameZeroShot,
			Msg:   fmt.Sprintf("inference API returned status %d: %s", resp.StatusCode, truncate(string(raw), 500)),
		}
	}

	return normalizeZeroShot(string(raw))
}

// normalizeZeroShot maps the known response-shape variants onto the common
// Result. The inference API answers either with parallel labels/scores
// arrays, or with a list of {label, score} items (sometimes nested one
// level deep inside another list).
func normalizeZeroShot(raw string) (Result, error) {
	parsed := gjson.Parse(raw)

	shape, v := classifyShape(parsed)
	switch shape {
	case hfShapeLabeledScorePairs:
		labels := v.Get("labels").Array()
		scores := v.Get("scores").Array()
		if len(labels) == 0 || len(scores) == 0 {
			return Result{}, &MalformedPayloadError{
				Agent: NameZeroShot,
				Raw:   raw,
				Err:   fmt.Errorf("labels/scores arrays are empty"),
			}
		}
		return Result{
			Agent:    NameZeroShot,
			Category: labels[0].String(),
			Score:    Clamp01(scores[0].Float()),
			Reason:   "zero-shot classification top label",
		}, nil

	case hfShapeTopLabelObjects:
		items := v.Array()
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Get("score").Float() > items[j].Get("score").Float()
		})
		top := items[0]
		return Result{
			Agent:    NameZeroShot,
			Category: top.Get("label").String(),
			Score:    Clamp01(top.Get("score").Float()),
			Reason:   "zero-shot classification top label",
		}, nil

	default:
		return Result{}, &MalformedPayloadError{
			Agent: NameZeroShot,
			Raw:   raw,
			Err:   fmt.Errorf("unrecognized response shape"),
		}
	}
}

// classifyShape resolves which variant a response is, unwrapping one level
// of list nesting where the API does that.
func classifyShape(v gjson.Result) (hfShape, gjson.Result) {
	if v.IsObject() {
		if v.Get("labels").IsArray() && v.Get("scores").IsArray() {
			return hfShapeLabeledScorePairs, v
		}
		return hfShapeUnknown, v
	}

	if !v.IsArray() {
		return hfShapeUnknown, v
	}

	items := v.Array()
	if len(items) == 0 {
		return hfShapeUnknown, v
	}

	first := items[0]
	switch {
	case first.IsObject() && first.Get("labels").IsArray() && first.Get("scores").IsArray():
		return hfShapeLabeledScorePairs, first
	case first.IsObject() && first.Get("label").Exists() && first.Get("score").Exists():
		return hfShapeTopLabelObjects, v
	case first.IsArray():
		return classifyShape(first)
	default:
		return hfShapeUnknown, v
	}
}
