package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/youruser/certapp/internal/award"
)

type ResolverSuite struct {
	suite.Suite
	cat *Catalog
}

func (s *ResolverSuite) SetupTest() {
	s.cat = Default()
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) TestResolveBase() {
	for _, name := range []string{"单镜头", "蒙太奇", "长镜头"} {
		p, err := s.cat.ResolveBase(name)
		s.Require().NoError(err)
		s.Equal("底图/"+name+"/底图.png", p)
	}
}

func (s *ResolverSuite) TestResolveOverlayConfiguredPaths() {
	want := map[string]map[award.Tier]string{
		"单镜头": {
			award.Gold:     "底图/单镜头/单镜头-金奖.png",
			award.Silver:   "底图/单镜头/单镜头-银奖.png",
			award.Bronze:   "底图/单镜头/单镜头-铜奖.png",
			award.Finalist: "底图/单镜头/单镜头-入围奖.png",
		},
		"蒙太奇": {
			award.Gold:     "底图/蒙太奇/蒙太奇-金奖.png",
			award.Finalist: "底图/蒙太奇/蒙太奇-入围奖.png",
		},
		"长镜头": {
			award.Bronze:   "底图/长镜头/长镜头-铜奖.png",
			award.Finalist: "底图/长镜头/长镜头-入围.png",
		},
	}
	for cat, tiers := range want {
		for tier, path := range tiers {
			got, err := s.cat.ResolveOverlay(cat, tier)
			s.Require().NoError(err)
			s.Equal(path, got, "%s/%s", cat, tier)
		}
	}
}

func (s *ResolverSuite) TestUnknownKeys() {
	s.Run("unknown category", func() {
		p, err := s.cat.ResolveBase("航拍")
		s.Require().ErrorIs(err, ErrUnknownCategory)
		s.Empty(p)

		_, err = s.cat.ResolveOverlay("航拍", award.Gold)
		s.Require().ErrorIs(err, ErrUnknownCategory)
	})

	s.Run("unknown tier", func() {
		p, err := s.cat.ResolveOverlay("单镜头", award.Tier("platinum"))
		s.Require().ErrorIs(err, ErrUnknownAwardTier)
		s.Empty(p)
	})
}

func (s *ResolverSuite) TestMetadata() {
	s.Equal("VIDEO_BATTLE证书", s.cat.Product())
	s.Equal("单镜头", s.cat.DefaultCategory())
	s.Equal([]string{"单镜头", "蒙太奇", "长镜头"}, s.cat.Categories())
	s.Equal("入围奖", s.cat.Label(award.Finalist))
	s.Equal("gold", (&Catalog{}).Label(award.Gold))
}

func (s *ResolverSuite) TestTierOf() {
	for in, want := range map[string]award.Tier{"gold": award.Gold, "Silver": award.Silver, "铜奖": award.Bronze, "入围奖": award.Finalist} {
		got, ok := s.cat.TierOf(in)
		s.True(ok, in)
		s.Equal(want, got)
	}
	_, ok := s.cat.TierOf("特等奖")
	s.False(ok)
}

func (s *ResolverSuite) TestCategoryReturnsCopy() {
	cat, ok := s.cat.Category("单镜头")
	s.Require().True(ok)
	cat.Overlays[string(award.Gold)] = "hijacked.png"
	delete(cat.Overlays, string(award.Silver))

	again, ok := s.cat.Category("单镜头")
	s.Require().True(ok)
	s.Equal("单镜头-金奖.png", again.Overlays[string(award.Gold)])
	s.Contains(again.Overlays, string(award.Silver))

	p, err := s.cat.ResolveOverlay("单镜头", award.Silver)
	s.Require().NoError(err)
	s.Equal("底图/单镜头/单镜头-银奖.png", p)
}

func TestParseMissingTierIsResolutionError(t *testing.T) {
	c, err := Parse(`
[[category]]
name = "x"
folder = "x/"
base = "b.png"
[category.overlays]
gold = "g.png"
`)
	require.NoError(t, err)
	assert.Equal(t, "x", c.DefaultCategory())

	_, err = c.ResolveOverlay("x", award.Silver)
	assert.ErrorIs(t, err, ErrUnknownAwardTier)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"no categories": `product = "p"`,
		"missing base":  "[[category]]\nname = \"x\"\n",
		"unknown tier":  "[[category]]\nname = \"x\"\nbase = \"b.png\"\n[category.overlays]\nplatinum = \"p.png\"\n",
		"duplicate":     "[[category]]\nname = \"x\"\nbase = \"b.png\"\n[[category]]\nname = \"x\"\nbase = \"b.png\"\n",
		"bad default":   "default = \"y\"\n[[category]]\nname = \"x\"\nbase = \"b.png\"\n",
		"bad label":     "[labels]\nplatinum = \"白金\"\n[[category]]\nname = \"x\"\nbase = \"b.png\"\n",
		"not toml":      "[[category",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(data)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(defaultCatalog), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Categories(), c.Categories())

	c, err = Load("")
	require.NoError(t, err)
	assert.True(t, c.Has("长镜头"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
