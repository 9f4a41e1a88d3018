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

//go:generate mockgen -source=interfaces.go -destination=mock/interfaces.go -package=mock

package assets

import (
	"context"

	"github.com/unikorn-cloud/geefixture/pkg/earthengine"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
)

// Client is the subset of the API used to manage asset trees.
type Client interface {
	CreateAsset(ctx context.Context, name string, assetType earthengine.AssetType) (*earthengine.Asset, error)
	GetAsset(ctx context.Context, name string) (*earthengine.Asset, error)
	ListAssets(ctx context.Context, parent string) ([]earthengine.Asset, error)
	DeleteAsset(ctx context.Context, name string) error
	ExportImage(ctx context.Context, expression *ee.Expression, description, assetName string) (*earthengine.Operation, error)
	ExportTable(ctx context.Context, expression *ee.Expression, description, assetName string) (*earthengine.Operation, error)
	GetOperation(ctx context.Context, name string) (*earthengine.Operation, error)
	ListOperations(ctx context.Context) ([]earthengine.Operation, error)
}
