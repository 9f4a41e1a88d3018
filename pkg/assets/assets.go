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

// Package assets manages trees of remote assets used as test fixtures.
// Everything here is sequential: containers are created and leaves exported
// one at a time, in name order.
package assets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/unikorn-cloud/geefixture/pkg/config"
	"github.com/unikorn-cloud/geefixture/pkg/earthengine"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
	"github.com/unikorn-cloud/geefixture/pkg/metrics"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	// ErrUnsupportedExport is returned when exporting anything but an
	// image or a feature collection.
	ErrUnsupportedExport = errors.New("only images and feature collections can be exported")

	// ErrExportFailed is returned when an export ends failed or cancelled.
	ErrExportFailed = errors.New("export failed")
)

const (
	// DefaultPollInterval is how often export tasks are polled.
	DefaultPollInterval = 5 * time.Second

	// DefaultTimeout is how long an export task is waited on.
	DefaultTimeout = 10 * time.Minute
)

// Options controls how long exports are waited on.
type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

// DefaultOptions returns the default polling options.
func DefaultOptions() *Options {
	return &Options{
		PollInterval: DefaultPollInterval,
		Timeout:      DefaultTimeout,
	}
}

// OptionsFromConfig returns polling options from the configuration.
func OptionsFromConfig(c *config.Config) *Options {
	return &Options{
		PollInterval: c.PollInterval,
		Timeout:      c.TaskTimeout,
	}
}

//nolint:gochecknoglobals
var invalidDescription = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// description builds an export task description, the service only accepts
// a restricted character set.
func description(prefix, name string) string {
	return invalidDescription.ReplaceAllString(prefix+"_"+name, "_")
}

// InitTree creates the folder <root>/<prefix> and populates it from the
// tree: containers are created with their kind and leaves are exported and
// waited on.  The folder name is returned, even on error, so a partially
// built tree can be cleaned up.
func InitTree(ctx context.Context, client Client, tree Tree, prefix, root string, options *Options) (string, error) {
	log := log.FromContext(ctx)

	folder := root + "/" + prefix

	if _, err := client.CreateAsset(ctx, folder, earthengine.AssetTypeFolder); err != nil {
		return "", fmt.Errorf("creating test folder: %w", err)
	}

	log.Info("created test folder", "folder", folder)

	return folder, initTree(ctx, client, tree, prefix, folder, options)
}

func initTree(ctx context.Context, client Client, tree Tree, prefix, folder string, options *Options) error {
	log := log.FromContext(ctx)

	names := make([]string, 0, len(tree))

	for name := range tree {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		assetName := folder + "/" + name

		switch node := tree[name].(type) {
		case Container:
			assetType, err := node.Kind.AssetType()
			if err != nil {
				return err
			}

			if _, err := client.CreateAsset(ctx, assetName, assetType); err != nil {
				return fmt.Errorf("creating container %s: %w", assetName, err)
			}

			log.V(1).Info("created container", "asset", assetName, "kind", node.Kind)

			if err := initTree(ctx, client, node.Children, prefix, assetName, options); err != nil {
				return err
			}
		case Leaf:
			state, err := Export(ctx, client, node.Object, assetName, description(prefix, name), options)
			if err != nil {
				return err
			}

			switch state {
			case earthengine.StateSucceeded:
			case earthengine.StateFailed, earthengine.StateCancelled:
				return fmt.Errorf("%w: %s ended %s", ErrExportFailed, assetName, state)
			default:
				log.Info("export did not finish in time, continuing", "asset", assetName, "state", state)
			}
		default:
			return fmt.Errorf("%w: %s is %T", ErrUnsupportedExport, assetName, node)
		}
	}

	return nil
}

// Start launches the export of an image or feature collection to an asset.
// Images are exported over their own footprint.
func Start(ctx context.Context, client Client, object ee.ComputedObject, assetName, description string) (*earthengine.Operation, error) {
	//nolint:exhaustive
	switch object.Kind() {
	case ee.KindImage:
		image := ee.ToImage(object)

		return client.ExportImage(ctx, ee.Build(image.Clip(image.Geometry())), description, assetName)
	case ee.KindFeatureCollection:
		return client.ExportTable(ctx, ee.Build(object), description, assetName)
	}

	return nil, fmt.Errorf("%w: got %s", ErrUnsupportedExport, object.Kind())
}

// Export starts an export and waits for it, returning the last state seen.
func Export(ctx context.Context, client Client, object ee.ComputedObject, assetName, description string, options *Options) (earthengine.State, error) {
	log := log.FromContext(ctx)

	operation, err := Start(ctx, client, object, assetName, description)
	if err != nil {
		return "", err
	}

	log.Info("started export", "asset", assetName, "description", description, "operation", operation.Name)

	return WaitForTask(ctx, client, operation.Name, options.PollInterval, options.Timeout)
}

// WaitForTask polls an operation until it succeeds, fails or is cancelled.
// A timeout is not an error, the last observed state is returned and the
// caller decides what to do with it.  Cancelling the context returns its
// error alongside the last state.
func WaitForTask(ctx context.Context, client Client, name string, interval, timeout time.Duration) (earthengine.State, error) {
	log := log.FromContext(ctx).WithValues("operation", name)

	var state earthengine.State

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := wait.PollUntilContextCancel(pollCtx, interval, true, func(ctx context.Context) (bool, error) {
		operation, err := client.GetOperation(ctx, name)
		if err != nil {
			return false, err
		}

		state = operation.Metadata.State

		log.V(1).Info("polled task", "state", state)

		return state.Terminal(), nil
	})

	label := string(state)
	if label == "" {
		label = "UNKNOWN"
	}

	metrics.TaskStates.WithLabelValues(label).Inc()

	switch {
	case err == nil:
		return state, nil
	case ctx.Err() != nil:
		return state, ctx.Err()
	case wait.Interrupted(err), pollCtx.Err() != nil, errors.Is(err, context.DeadlineExceeded):
		log.Info("timed out waiting for task", "state", state, "timeout", timeout)

		return state, nil
	}

	return state, fmt.Errorf("waiting for %s: %w", name, err)
}

// GetTask returns the first operation with the description, nil if none.
func GetTask(ctx context.Context, client Client, description string) (*earthengine.Operation, error) {
	operations, err := client.ListOperations(ctx)
	if err != nil {
		return nil, err
	}

	for i := range operations {
		if operations[i].Metadata.Description == description {
			return &operations[i], nil
		}
	}

	return nil, nil //nolint:nilnil
}

// GetAssets lists every asset under a folder, depth first.
func GetAssets(ctx context.Context, client Client, folder string) ([]earthengine.Asset, error) {
	return getAssets(ctx, client, folder, nil)
}

func getAssets(ctx context.Context, client Client, folder string, assets []earthengine.Asset) ([]earthengine.Asset, error) {
	children, err := client.ListAssets(ctx, folder)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		assets = append(assets, child)

		if child.Type.Container() {
			if assets, err = getAssets(ctx, client, child.Name, assets); err != nil {
				return nil, err
			}
		}
	}

	return assets, nil
}

// DeleteAssets deletes an asset and, for containers, everything inside it.
// The most deeply nested assets go first so no container is deleted while
// it still has children.  A dry run returns the same list without deleting.
func DeleteAssets(ctx context.Context, client Client, name string, dryRun bool) ([]string, error) {
	log := log.FromContext(ctx)

	asset, err := client.GetAsset(ctx, name)
	if err != nil {
		return nil, err
	}

	var names []string

	if asset.Type.Container() {
		descendants, err := GetAssets(ctx, client, name)
		if err != nil {
			return nil, err
		}

		levels := map[int][]string{}

		for _, descendant := range descendants {
			depth := strings.Count(descendant.Name, "/")
			levels[depth] = append(levels[depth], descendant.Name)
		}

		depths := make([]int, 0, len(levels))

		for depth := range levels {
			depths = append(depths, depth)
		}

		slices.Sort(depths)
		slices.Reverse(depths)

		for _, depth := range depths {
			names = append(names, levels[depth]...)
		}
	}

	names = append(names, name)

	if dryRun {
		return names, nil
	}

	for i, n := range names {
		if err := client.DeleteAsset(ctx, n); err != nil {
			return names[:i], fmt.Errorf("deleting %s: %w", n, err)
		}

		log.V(1).Info("deleted asset", "asset", n)
	}

	return names, nil
}
