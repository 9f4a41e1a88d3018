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
	"errors"
	"fmt"
	"net/http"

	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

var (
	// ErrRequest is wrapped by every error the API responds with.
	ErrRequest = errors.New("earth engine request failed")

	// ErrNotFound is wrapped when the API responds with a 404.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidAssetName is returned for names not of the form
	// projects/<project>/assets/<path>.
	ErrInvalidAssetName = errors.New("invalid asset name")
)

// AssetType is the type of an asset.
type AssetType string

const (
	AssetTypeFolder          AssetType = "FOLDER"
	AssetTypeImageCollection AssetType = "IMAGE_COLLECTION"
	AssetTypeImage           AssetType = "IMAGE"
	AssetTypeTable           AssetType = "TABLE"
)

// Container is true for asset types that hold other assets.
func (t AssetType) Container() bool {
	return t == AssetTypeFolder || t == AssetTypeImageCollection
}

// Asset is the subset of asset metadata this library cares about.
type Asset struct {
	Type       AssetType `json:"type"`
	Name       string    `json:"name"`
	ID         string    `json:"id,omitempty"`
	UpdateTime string    `json:"updateTime,omitempty"`
}

// ListAssetsResponse is a page of child assets.
type ListAssetsResponse struct {
	Assets        []Asset `json:"assets"`
	NextPageToken string  `json:"nextPageToken"`
}

// State is the state of a long running operation.
type State string

const (
	StatePending    State = "PENDING"
	StateRunning    State = "RUNNING"
	StateCancelling State = "CANCELLING"
	StateSucceeded  State = "SUCCEEDED"
	StateCancelled  State = "CANCELLED"
	StateFailed     State = "FAILED"
)

// Terminal is true once an operation will not change state again.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateCancelled || s == StateFailed
}

// OperationMetadata describes an export task.
type OperationMetadata struct {
	Type            string   `json:"@type,omitempty"`
	State           State    `json:"state"`
	Description     string   `json:"description"`
	TaskType        string   `json:"type,omitempty"`
	CreateTime      string   `json:"createTime,omitempty"`
	UpdateTime      string   `json:"updateTime,omitempty"`
	DestinationURIs []string `json:"destinationUris,omitempty"`
}

// Status is a google.rpc.Status.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// Operation is a long running export task.
type Operation struct {
	Name     string            `json:"name"`
	Done     bool              `json:"done,omitempty"`
	Metadata OperationMetadata `json:"metadata"`
	Error    *Status           `json:"error,omitempty"`
}

// ListOperationsResponse is a page of operations.
type ListOperationsResponse struct {
	Operations    []Operation `json:"operations"`
	NextPageToken string      `json:"nextPageToken"`
}

// ComputeValueRequest is the body of value:compute.
type ComputeValueRequest struct {
	Expression *ee.Expression `json:"expression"`
}

// Range is a visualization value range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// VisualizationOptions is how a thumbnail maps pixel values to colours.
type VisualizationOptions struct {
	Ranges        []Range  `json:"ranges"`
	PaletteColors []string `json:"paletteColors,omitempty"`
}

// ThumbnailRequest is the body of a thumbnail creation.
type ThumbnailRequest struct {
	Expression           *ee.Expression        `json:"expression"`
	FileFormat           string                `json:"fileFormat"`
	BandIDs              []string              `json:"bandIds,omitempty"`
	VisualizationOptions *VisualizationOptions `json:"visualizationOptions,omitempty"`
}

// Thumbnail is a created thumbnail, its pixels are fetched by name.
type Thumbnail struct {
	Name string `json:"name"`
}

// EarthEngineDestination is where an asset export writes.
type EarthEngineDestination struct {
	Name string `json:"name"`
}

// AssetExportOptions selects an asset destination for an export.
type AssetExportOptions struct {
	EarthEngineDestination EarthEngineDestination `json:"earthEngineDestination"`
}

// ExportRequest is the body of both image and table exports.
type ExportRequest struct {
	Expression         *ee.Expression     `json:"expression"`
	Description        string             `json:"description"`
	AssetExportOptions AssetExportOptions `json:"AssetExportOptions"`
	RequestID          string             `json:"requestId,omitempty"`
}

// ErrorResponse is the error envelope of every API failure.
type ErrorResponse struct {
	Error Status `json:"error"`
}

// APIError is a non successful API response.
type APIError struct {
	StatusCode int
	Status     Status
	TraceID    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: status %d: %s (trace ID: %s)", ErrRequest, e.StatusCode, e.Status.Message, e.TraceID)
}

func (e *APIError) Unwrap() []error {
	if e.StatusCode == http.StatusNotFound {
		return []error{ErrRequest, ErrNotFound}
	}

	return []error{ErrRequest}
}
