package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/crosswalk/pkg/dataset"
	"github.com/hazyhaar/crosswalk/pkg/kit"
)

// maxBatch bounds the records accepted by one batch resolve.
const maxBatch = 100

var errBadRequest = errors.New("bad request")

// Shared request/response types used by both HTTP and MCP transports.

type resolveReq struct {
	Dataset string
	Record  map[string]any
}

type resolveBatchReq struct {
	Dataset string
	Records []map[string]any
}

type describeReq struct {
	Dataset string
}

type batchResponse struct {
	Results []*dataset.ResolveResult `json:"results"`
}

type datasetsResponse struct {
	Datasets []dataset.Info `json:"datasets"`
}

// endpoints are the registry actions, wrapped with request-id and logging
// middleware.
type endpoints struct {
	resolve      kit.Endpoint
	resolveBatch kit.Endpoint
	listDatasets kit.Endpoint
	describe     kit.Endpoint
}

func newEndpoints(reg *dataset.Registry, logger *slog.Logger) endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.RequestID(), kit.Logging(logger, name))(ep)
	}
	return endpoints{
		resolve:      wrap("resolve", resolveEndpoint(reg)),
		resolveBatch: wrap("resolve_batch", resolveBatchEndpoint(reg)),
		listDatasets: wrap("list_datasets", listDatasetsEndpoint(reg)),
		describe:     wrap("describe_dataset", describeEndpoint(reg)),
	}
}

func resolveEndpoint(reg *dataset.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*resolveReq)
		if req.Record == nil {
			return nil, fmt.Errorf("%w: record is missing", errBadRequest)
		}
		return reg.Resolve(req.Dataset, req.Record)
	}
}

func resolveBatchEndpoint(reg *dataset.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*resolveBatchReq)
		if len(req.Records) == 0 {
			return nil, fmt.Errorf("%w: records array is empty", errBadRequest)
		}
		if len(req.Records) > maxBatch {
			return nil, fmt.Errorf("%w: too many records (max %d, got %d)", errBadRequest, maxBatch, len(req.Records))
		}
		results, err := reg.ResolveBatch(req.Dataset, req.Records)
		if err != nil {
			return nil, err
		}
		return batchResponse{Results: results}, nil
	}
}

func listDatasetsEndpoint(reg *dataset.Registry) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return datasetsResponse{Datasets: reg.ListDatasets()}, nil
	}
}

func describeEndpoint(reg *dataset.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*describeReq)
		return reg.Describe(req.Dataset)
	}
}
