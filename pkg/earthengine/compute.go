/*
Copyright 2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

var (
	// ErrMissingResult is returned when a computation responds without a
	// result member.
	ErrMissingResult = errors.New("response has no result")
)

// ComputeValue evaluates an expression.  Numbers are decoded as
// json.Number so integers and floats can be told apart.
func (c *Client) ComputeValue(ctx context.Context, expression *ee.Expression) (any, error) {
	body, err := c.doRequest(ctx, &request{
		operation: "computeValue",
		method:    http.MethodPost,
		path:      c.endpoints.ComputeValue(c.projectID),
		body:      &ComputeValueRequest{Expression: expression},
	})
	if err != nil {
		return nil, fmt.Errorf("computing value: %w", err)
	}

	return DecodeResult(body)
}

// DecodeResult extracts the result member of a value:compute response.
func DecodeResult(body []byte) (any, error) {
	var response map[string]any

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	if err := decoder.Decode(&response); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}

	result, ok := response["result"]
	if !ok {
		return nil, ErrMissingResult
	}

	return result, nil
}

// Thumbnail renders an image expression to PNG.
func (c *Client) Thumbnail(ctx context.Context, expression *ee.Expression, visualization *ee.Visualization) ([]byte, error) {
	if err := visualization.Validate(); err != nil {
		return nil, err
	}

	options := &VisualizationOptions{
		Ranges:        make([]Range, len(visualization.Bands)),
		PaletteColors: visualization.Palette,
	}

	for i := range visualization.Bands {
		lo, hi := visualization.Range(i)
		options.Ranges[i] = Range{Min: lo, Max: hi}
	}

	var t Thumbnail

	if err := c.doJSON(ctx, &request{
		operation: "createThumbnail",
		method:    http.MethodPost,
		path:      c.endpoints.CreateThumbnail(c.projectID),
		body: &ThumbnailRequest{
			Expression:           expression,
			FileFormat:           "PNG",
			BandIDs:              visualization.Bands,
			VisualizationOptions: options,
		},
	}, &t); err != nil {
		return nil, err
	}

	pixels, err := c.doRequest(ctx, &request{
		operation: "getPixels",
		method:    http.MethodGet,
		path:      c.endpoints.GetPixels(t.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching thumbnail pixels: %w", err)
	}

	return pixels, nil
}
