package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"

	"github.com/banshee-data/ciefunctions/internal/api"
	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/httputil"
)

// output is one computed quantity. Result and Plot are nil for the
// info variants, which only have a JSON rendering.
type output struct {
	JSON   []byte
	Result [][]float64
	Plot   [][]float64
}

type source interface {
	fetch(ctx context.Context, q colorimetry.Quantity, query url.Values) (*output, error)
}

// localSource validates the query the way the server does and computes
// in process.
type localSource struct {
	engine *colorimetry.Engine
}

func (s *localSource) fetch(ctx context.Context, q colorimetry.Quantity, query url.Values) (*output, error) {
	p, err := api.ParseParams(q, query)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := s.engine.Compute(q, p)
	if err != nil {
		return nil, err
	}
	out := &output{JSON: res.JSON}
	if v, ok := res.Bundle.Get(colorimetry.EntryResult); ok {
		out.Result, _ = v.([][]float64)
	}
	if v, ok := res.Bundle.Get(colorimetry.EntryPlot); ok {
		out.Plot, _ = v.([][]float64)
	}
	return out, nil
}

// remoteSource fetches the calculation endpoint of a running server.
type remoteSource struct {
	client *httputil.APIClient
}

func (s *remoteSource) fetch(ctx context.Context, q colorimetry.Quantity, query url.Values) (*output, error) {
	body, err := s.client.Calculation(ctx, q.String(), query)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	out := &output{JSON: body}
	out.Result = decodeRows(raw[colorimetry.EntryResult])
	out.Plot = decodeRows(raw[colorimetry.EntryPlot])
	return out, nil
}

// decodeRows reads a two dimensional array, mapping null to NaN. It
// returns nil when msg is absent or not a table of numbers.
func decodeRows(msg json.RawMessage) [][]float64 {
	if len(msg) == 0 {
		return nil
	}
	var rows [][]*float64
	if err := json.Unmarshal(msg, &rows); err != nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = math.NaN()
				continue
			}
			out[i][j] = *v
		}
	}
	return out
}
