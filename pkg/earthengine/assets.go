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
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

// SplitAssetName splits projects/<project>/assets/<path> into the project
// and the asset path relative to the project root.
func SplitAssetName(name string) (string, string, error) {
	parts := strings.SplitN(name, "/", 4)
	if len(parts) != 4 || parts[0] != "projects" || parts[2] != "assets" || parts[1] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidAssetName, name)
	}

	return parts[1], parts[3], nil
}

// CreateAsset creates an empty container asset.
func (c *Client) CreateAsset(ctx context.Context, name string, assetType AssetType) (*Asset, error) {
	projectID, assetID, err := SplitAssetName(name)
	if err != nil {
		return nil, err
	}

	var asset Asset

	if err := c.doJSON(ctx, &request{
		operation: "createAsset",
		method:    http.MethodPost,
		path:      c.endpoints.CreateAsset(projectID),
		query:     url.Values{"assetId": []string{assetID}},
		body:      &Asset{Type: assetType},
	}, &asset); err != nil {
		return nil, err
	}

	return &asset, nil
}

// GetAsset reads an asset's metadata.
func (c *Client) GetAsset(ctx context.Context, name string) (*Asset, error) {
	var asset Asset

	if err := c.doJSON(ctx, &request{
		operation: "getAsset",
		method:    http.MethodGet,
		path:      c.endpoints.Asset(name),
	}, &asset); err != nil {
		return nil, err
	}

	return &asset, nil
}

// ListAssets lists the direct children of a container, all pages.
func (c *Client) ListAssets(ctx context.Context, parent string) ([]Asset, error) {
	var assets []Asset

	query := url.Values{}

	for {
		var page ListAssetsResponse

		if err := c.doJSON(ctx, &request{
			operation: "listAssets",
			method:    http.MethodGet,
			path:      c.endpoints.ListAssets(parent),
			query:     query,
		}, &page); err != nil {
			return nil, err
		}

		assets = append(assets, page.Assets...)

		if page.NextPageToken == "" {
			return assets, nil
		}

		query = url.Values{"pageToken": []string{page.NextPageToken}}
	}
}

// DeleteAsset deletes a single asset.  Containers must be empty.
func (c *Client) DeleteAsset(ctx context.Context, name string) error {
	return c.doJSON(ctx, &request{
		operation: "deleteAsset",
		method:    http.MethodDelete,
		path:      c.endpoints.Asset(name),
	}, nil)
}

// ExportImage starts exporting an image expression to an asset.
func (c *Client) ExportImage(ctx context.Context, expression *ee.Expression, description, assetName string) (*Operation, error) {
	return c.export(ctx, "exportImage", c.endpoints.ExportImage(c.projectID), expression, description, assetName)
}

// ExportTable starts exporting a feature collection expression to an asset.
func (c *Client) ExportTable(ctx context.Context, expression *ee.Expression, description, assetName string) (*Operation, error) {
	return c.export(ctx, "exportTable", c.endpoints.ExportTable(c.projectID), expression, description, assetName)
}

func (c *Client) export(ctx context.Context, operation, path string, expression *ee.Expression, description, assetName string) (*Operation, error) {
	var o Operation

	if err := c.doJSON(ctx, &request{
		operation: operation,
		method:    http.MethodPost,
		path:      path,
		body: &ExportRequest{
			Expression:  expression,
			Description: description,
			AssetExportOptions: AssetExportOptions{
				EarthEngineDestination: EarthEngineDestination{Name: assetName},
			},
			// Lets the server drop a retried duplicate.
			RequestID: uuid.NewString(),
		},
	}, &o); err != nil {
		return nil, err
	}

	return &o, nil
}

// GetOperation reads the current state of an operation.
func (c *Client) GetOperation(ctx context.Context, name string) (*Operation, error) {
	var o Operation

	if err := c.doJSON(ctx, &request{
		operation: "getOperation",
		method:    http.MethodGet,
		path:      c.endpoints.Operation(name),
	}, &o); err != nil {
		return nil, err
	}

	return &o, nil
}

// ListOperations lists the project's operations, all pages.
func (c *Client) ListOperations(ctx context.Context) ([]Operation, error) {
	var operations []Operation

	query := url.Values{}

	for {
		var page ListOperationsResponse

		if err := c.doJSON(ctx, &request{
			operation: "listOperations",
			method:    http.MethodGet,
			path:      c.endpoints.ListOperations(c.projectID),
			query:     query,
		}, &page); err != nil {
			return nil, err
		}

		operations = append(operations, page.Operations...)

		if page.NextPageToken == "" {
			return operations, nil
		}

		query = url.Values{"pageToken": []string{page.NextPageToken}}
	}
}
