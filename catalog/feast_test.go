package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/feast"
)

type fakeFeast struct {
	rows map[string]map[string]interface{}
	req  *feast.GetOnlineFeaturesRequest
	err  error
}

func (f *fakeFeast) GetOnlineFeatures(_ context.Context, req *feast.GetOnlineFeaturesRequest) (*feast.GetOnlineFeaturesResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	resp := &feast.GetOnlineFeaturesResponse{}
	for _, row := range req.EntityRows {
		id, _ := row["product_sys_id"].(string)
		resp.FeatureVectors = append(resp.FeatureVectors, feast.FeatureVector{
			Values:    f.rows[id],
			EntityRow: row,
		})
	}
	return resp, nil
}

func (f *fakeFeast) Close() error { return nil }

func TestFeastCatalog_BatchGet(t *testing.T) {
	client := &fakeFeast{rows: map[string]map[string]interface{}{
		"p1": {
			"product:category": "phone",
			"product:price":    float64(100),
			"product:stock":    int64(5),
			"product:status":   "instock",
		},
		"p2": {"product:category": nil},
	}}
	c := &FeastCatalog{Client: client, Project: "shop"}

	snap, err := c.BatchGet(context.Background(), []string{"p1", "p2", "p1"})
	require.NoError(t, err)
	assert.Equal(t, core.MetadataSnapshot{
		"p1": {Category: "phone", Price: 100, Stock: 5, Status: core.AvailabilityInStock},
	}, snap)
	assert.Len(t, client.req.EntityRows, 2)
	assert.Equal(t, "shop", client.req.Project)
	assert.Contains(t, client.req.Features, "product:status")
}

func TestFeastCatalog_Error(t *testing.T) {
	c := &FeastCatalog{Client: &fakeFeast{err: errors.New("unavailable")}, FeatureView: "item"}
	_, err := c.BatchGet(context.Background(), []string{"p1"})
	assert.Error(t, err)

	snap, err := c.BatchGet(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snap)
}
