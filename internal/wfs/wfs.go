package wfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harava/talkoot/internal/zones"
	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// Feed property names of the contract zone layer.
const (
	propertyName       = "nimi"
	propertyID         = "id"
	propertyContractor = "urakoitsija"
)

// Client fetches contract zones from a WFS 2.0.0 endpoint as GeoJSON.
type Client struct {
	http     *http.Client
	baseURL  string
	typeName string
	filter   string
}

func NewClient(baseURL, typeName, filter string) *Client {
	return &Client{
		http:     &http.Client{Timeout: 60 * time.Second},
		baseURL:  baseURL,
		typeName: typeName,
		filter:   filter,
	}
}

// URL of the GetFeature request.
func (client *Client) URL() string {
	params := url.Values{}
	params.Set("SERVICE", "WFS")
	params.Set("VERSION", "2.0.0")
	params.Set("REQUEST", "GetFeature")
	params.Set("TYPENAME", client.typeName)
	params.Set("SRSNAME", fmt.Sprintf("EPSG:%d", zones.SRID))
	params.Set("outputFormat", "application/json")
	if client.filter != "" {
		params.Set("cql_filter", client.filter)
	}
	return client.baseURL + "?" + params.Encode()
}

// Fetch downloads the raw feature collection.
func (client *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.URL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	log.Debug().Str("url", req.URL.String()).Msg("fetching contract zones")

	resp, err := client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contract zones: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch contract zones: unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// Parse decodes a feature collection into zone records. Features that cannot
// be decoded are returned as errors next to the records of the others.
func Parse(data []byte) ([]zones.Record, []error) {
	collection := featureCollection{}
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, []error{fmt.Errorf("invalid feature collection: %w", err)}
	}
	if collection.Type != "FeatureCollection" {
		return nil, []error{fmt.Errorf("invalid feature collection: unexpected type %q", collection.Type)}
	}

	records := []zones.Record{}
	errs := []error{}
	for i, raw := range collection.Features {
		record, err := parseFeature(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("feature %d: %w", i, err))
			continue
		}
		records = append(records, record)
	}

	return records, errs
}

func parseFeature(raw json.RawMessage) (zones.Record, error) {
	feature := &geojson.Feature{}
	if err := feature.UnmarshalJSON(raw); err != nil {
		return zones.Record{}, err
	}

	originID := property(feature.Properties, propertyID)
	if originID == "" {
		return zones.Record{}, errors.New("missing id")
	}

	boundary, err := multiPolygon(feature.Geometry)
	if err != nil {
		return zones.Record{}, fmt.Errorf("zone %s: %w", originID, err)
	}

	return zones.Record{
		OriginID:   originID,
		Name:       property(feature.Properties, propertyName),
		Boundary:   boundary,
		Contractor: property(feature.Properties, propertyContractor),
		Active:     true,
	}, nil
}

// multiPolygon converts a polygonal geometry into a GEOS multipolygon.
func multiPolygon(g geom.T) (*geos.Geom, error) {
	var mp *geom.MultiPolygon
	switch g := g.(type) {
	case *geom.MultiPolygon:
		mp = g
	case *geom.Polygon:
		var err error
		mp, err = geom.NewMultiPolygon(g.Layout()).SetCoords([][][]geom.Coord{g.Coords()})
		if err != nil {
			return nil, err
		}
	case nil:
		return nil, errors.New("missing geometry")
	default:
		return nil, fmt.Errorf("geometry was not a polygon but %T", g)
	}

	b, err := wkb.Marshal(mp, wkb.NDR)
	if err != nil {
		return nil, err
	}

	boundary, err := geos.NewGeomFromWKB(b)
	if err != nil {
		return nil, err
	}

	return boundary.SetSRID(zones.SRID), nil
}

func property(properties map[string]interface{}, key string) string {
	switch v := properties[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
