package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
)

// DoctorIndex keeps a searchable copy of the doctor catalogue. Postgres
// stays the source of truth; search results are doctor ids.
type DoctorIndex struct {
	ES   *elasticsearch.Client
	Name string
}

func NewDoctorIndex(es *elasticsearch.Client, index string) *DoctorIndex {
	if es == nil || index == "" {
		return nil
	}
	return &DoctorIndex{ES: es, Name: index}
}

type doctorDoc struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Speciality string `json:"speciality"`
	Degree     string `json:"degree"`
	About      string `json:"about"`
	Available  bool   `json:"available"`
	Fees       int64  `json:"fees"`
	UpdatedAt  string `json:"updated_at"`
}

func (x *DoctorIndex) Index(ctx context.Context, d *entity.Doctor) error {
	b, err := json.Marshal(doctorDoc{
		ID:         d.ID,
		Name:       d.Name,
		Speciality: d.Speciality,
		Degree:     d.Degree,
		About:      d.About,
		Available:  d.Available,
		Fees:       d.Fees,
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.Name, DocumentID: d.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", d.ID, res.Status())
	}
	return nil
}

// Search runs a multi_match over name, speciality and about, optionally
// filtered to one speciality.
func (x *DoctorIndex) Search(ctx context.Context, q, speciality string, size int) ([]string, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	boolQ := map[string]any{}
	if q = strings.TrimSpace(q); q != "" {
		boolQ["must"] = []any{map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "speciality", "about"},
				"fuzziness": "AUTO",
			},
		}}
	} else {
		boolQ["must"] = []any{map[string]any{"match_all": map[string]any{}}}
	}
	if speciality = strings.TrimSpace(speciality); speciality != "" {
		boolQ["filter"] = []any{map[string]any{
			"match": map[string]any{"speciality": map[string]any{"query": speciality, "operator": "and"}},
		}}
	}
	b, err := json.Marshal(map[string]any{
		"query":   map[string]any{"bool": boolQ},
		"size":    size,
		"_source": false,
	})
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.Name),
		x.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.ID)
	}
	return out, nil
}
