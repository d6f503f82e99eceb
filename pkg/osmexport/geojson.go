package osmexport

import (
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"map_console/pkg/cache"
	"map_console/pkg/pathview"
	"map_console/pkg/style"
)

// FeatureCollection renders every drawable edge as a LineString feature
// carrying its resolved style. A non-nil path is appended as one more
// feature with "layer": "path".
func FeatureCollection(c *cache.Cache, r *style.Resolver, path *pathview.Drawing) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, e := range c.Edges() {
		from, to, ok := c.Endpoints(e)
		if !ok {
			continue
		}
		con := c.Constraint(e.ID)
		st := r.Resolve(e, con, false)

		f := geojson.NewFeature(orb.LineString{
			{from.Longitude, from.Latitude},
			{to.Longitude, to.Latitude},
		})
		f.ID = e.ID
		f.Properties["layer"] = "edge"
		f.Properties["edge_id"] = e.ID
		f.Properties["from_node"] = e.FromNode
		f.Properties["to_node"] = e.ToNode
		f.Properties["distance"] = e.Distance
		f.Properties["is_oneway"] = bool(e.IsOneway)
		f.Properties["style"] = st.Kind.String()
		f.Properties["stroke"] = st.Color
		f.Properties["stroke-width"] = st.Weight
		f.Properties["stroke-opacity"] = st.Opacity
		f.Properties["label"] = st.Label
		if con != nil {
			f.Properties["constraint_type"] = string(con.Type)
			f.Properties["value"] = con.Value
			f.Properties["description"] = con.Description
		}
		fc.Append(f)
	}

	if path != nil {
		f := geojson.NewFeature(path.Line)
		f.Properties["layer"] = "path"
		f.Properties["stroke"] = r.Palette().Path
		f.Properties["total_distance"] = path.Result.TotalDistance
		f.Properties["num_nodes"] = path.Result.NumNodes
		f.Properties["path_string"] = path.Result.PathString
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON encodes the feature collection.
func WriteGeoJSON(w io.Writer, c *cache.Cache, r *style.Resolver, path *pathview.Drawing) error {
	data, err := FeatureCollection(c, r, path).MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
