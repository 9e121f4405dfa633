package content

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPages(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)

	slugs := make([]string, 0)
	for _, s := range p.List() {
		slugs = append(slugs, s.Slug)
	}
	assert.Equal(t, []string{"about", "contact", "faq", "privacy", "returns", "shipping-policy", "terms"}, slugs)

	_, err = p.Get("careers")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestShippingPolicyGolden(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)

	page, err := p.Get("shipping-policy")
	require.NoError(t, err)

	data, err := json.MarshalIndent(page, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "shipping_policy", append(data, '\n'))
}

func TestListGolden(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)

	data, err := json.MarshalIndent(p.List(), "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "page_list", append(data, '\n'))
}

func TestLoad_RejectsBadFrontMatter(t *testing.T) {
	tests := map[string]string{
		"no front matter": "# Title\n",
		"unterminated":    "---\ntitle: x\n",
		"no title":        "---\ndescription: x\n---\nbody\n",
		"bad yaml":        "---\ntitle: [x\n---\nbody\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(fstest.MapFS{"x.md": {Data: []byte(src)}})
			assert.Error(t, err)
		})
	}
}
