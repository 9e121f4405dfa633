package cli

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Brands  []seedBrand  `yaml:"brands"`
	Users   []seedUser   `yaml:"users"`
	Coupons []seedCoupon `yaml:"coupons"`
}

type seedBrand struct {
	Name    string     `yaml:"name"`
	Country string     `yaml:"country"`
	LogoURL string     `yaml:"logoUrl"`
	Tyres   []seedTyre `yaml:"tyres"`
}

type seedTyre struct {
	Name         string        `yaml:"name"`
	Width        int           `yaml:"width"`
	AspectRatio  int           `yaml:"aspectRatio"`
	RimDiameter  int           `yaml:"rimDiameter"`
	Season       string        `yaml:"season"`
	VehicleType  string        `yaml:"vehicleType"`
	Price        string        `yaml:"price"`
	Stock        int           `yaml:"stock"`
	ReorderPoint int           `yaml:"reorderPoint"`
	MaxStock     int           `yaml:"maxStock"`
	Description  string        `yaml:"description"`
	ImageURL     string        `yaml:"imageUrl"`
	Vehicles     []seedVehicle `yaml:"vehicles"`
}

type seedVehicle struct {
	Make     string `yaml:"make"`
	Model    string `yaml:"model"`
	YearFrom int    `yaml:"yearFrom"`
	YearTo   int    `yaml:"yearTo"`
}

type seedUser struct {
	Email  string      `yaml:"email"`
	Name   string      `yaml:"name"`
	Phone  string      `yaml:"phone"`
	Role   string      `yaml:"role"`
	Dealer *seedDealer `yaml:"dealer"`
}

type seedDealer struct {
	BusinessName string `yaml:"businessName"`
	GSTNumber    string `yaml:"gstNumber"`
	TierLevel    int    `yaml:"tierLevel"`
}

type seedCoupon struct {
	Code        string `yaml:"code"`
	Kind        string `yaml:"kind"`
	Value       string `yaml:"value"`
	MinSubtotal string `yaml:"minSubtotal"`
	ExpiresAt   string `yaml:"expiresAt"`
	Inactive    bool   `yaml:"inactive"`
}

// SeedResult counts what a seed run wrote.
type SeedResult struct {
	Brands       int `json:"brands"`
	Tyres        int `json:"tyres"`
	TyresSkipped int `json:"tyresSkipped"`
	Users        int `json:"users"`
	Dealers      int `json:"dealers"`
	Coupons      int `json:"coupons"`
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load brands, tyres, users and coupons",
		Long: `Load catalog and account data from a YAML file, or the built-in demo
data when no file is given. Existing tyres are skipped; everything else
is upserted.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := defaultSeed
			if len(args) == 1 {
				var err error
				if data, err = os.ReadFile(args[0]); err != nil {
					return &ExitError{Code: ExitCommandError, Message: "cannot read seed file", Err: err}
				}
			}
			seed, err := parseSeed(data)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "invalid seed file", Err: err}
			}
			return rootOpts.withStore(cmd, func(ctx context.Context, s Store) error {
				res, err := applySeed(ctx, s, seed)
				if err != nil {
					return err
				}
				return rootOpts.emit(cmd, "ok", res, func(w io.Writer) {
					fmt.Fprintf(w, "brands\t%d\n", res.Brands)
					fmt.Fprintf(w, "tyres\t%d (%d already present)\n", res.Tyres, res.TyresSkipped)
					fmt.Fprintf(w, "users\t%d\n", res.Users)
					fmt.Fprintf(w, "dealers\t%d\n", res.Dealers)
					fmt.Fprintf(w, "coupons\t%d\n", res.Coupons)
				})
			})
		},
	}
}

func parseSeed(data []byte) (*seedFile, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func applySeed(ctx context.Context, s Store, f *seedFile) (*SeedResult, error) {
	res := &SeedResult{}

	for _, sb := range f.Brands {
		brand := &domain.Brand{Name: sb.Name, Country: sb.Country, LogoURL: sb.LogoURL}
		if err := s.CreateBrand(ctx, brand); err != nil {
			return nil, err
		}
		res.Brands++

		for _, st := range sb.Tyres {
			tyre, err := st.toTyre(brand.ID)
			if err != nil {
				return nil, fmt.Errorf("brand %s: %w", sb.Name, err)
			}
			err = s.CreateTyre(ctx, tyre)
			if errors.Is(err, repository.ErrAlreadyExists) {
				res.TyresSkipped++
				continue
			}
			if err != nil {
				return nil, err
			}
			res.Tyres++
		}
	}

	for _, su := range f.Users {
		role := domain.Role(strings.ToUpper(su.Role))
		if su.Role == "" {
			role = domain.RoleCustomer
		}
		if !role.Valid() {
			return nil, fmt.Errorf("user %s: invalid role %q", su.Email, su.Role)
		}
		user := &domain.User{Email: su.Email, Name: su.Name, Phone: su.Phone, Role: role}
		if err := s.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		res.Users++

		if su.Dealer == nil {
			continue
		}
		if su.Dealer.TierLevel != 0 && !domain.ValidTierLevel(su.Dealer.TierLevel) {
			return nil, fmt.Errorf("dealer %s: invalid tier level %d", su.Email, su.Dealer.TierLevel)
		}
		if err := s.UpsertDealer(ctx, &domain.Dealer{
			UserID:       user.ID,
			BusinessName: su.Dealer.BusinessName,
			GSTNumber:    su.Dealer.GSTNumber,
			TierLevel:    su.Dealer.TierLevel,
		}); err != nil {
			return nil, err
		}
		res.Dealers++
	}

	for _, sc := range f.Coupons {
		coupon, err := sc.toCoupon()
		if err != nil {
			return nil, err
		}
		if err := s.CreateCoupon(ctx, coupon); err != nil {
			return nil, err
		}
		res.Coupons++
	}

	return res, nil
}

func (st seedTyre) toTyre(brandID int64) (*domain.Tyre, error) {
	price, err := decimal.NewFromString(st.Price)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("tyre %s: invalid price %q", st.Name, st.Price)
	}
	if st.Width <= 0 || st.AspectRatio <= 0 || st.RimDiameter <= 0 {
		return nil, fmt.Errorf("tyre %s: width, aspectRatio and rimDiameter are required", st.Name)
	}
	t := &domain.Tyre{
		BrandID:      brandID,
		Name:         st.Name,
		Size:         fmt.Sprintf("%d/%dR%d", st.Width, st.AspectRatio, st.RimDiameter),
		Width:        st.Width,
		AspectRatio:  st.AspectRatio,
		RimDiameter:  st.RimDiameter,
		Season:       domain.Season(strings.ToUpper(st.Season)),
		VehicleType:  domain.VehicleType(strings.ToUpper(st.VehicleType)),
		Price:        price,
		Stock:        st.Stock,
		ReorderPoint: st.ReorderPoint,
		MaxStock:     st.MaxStock,
		Description:  st.Description,
		ImageURL:     st.ImageURL,
	}
	for _, v := range st.Vehicles {
		t.Vehicles = append(t.Vehicles, domain.CompatibleVehicle{
			Make: v.Make, Model: v.Model, YearFrom: v.YearFrom, YearTo: v.YearTo,
		})
	}
	if t.Season == "" {
		t.Season = domain.SeasonAllSeason
	}
	if t.VehicleType == "" {
		t.VehicleType = domain.VehicleCar
	}
	if t.ReorderPoint == 0 {
		t.ReorderPoint = 10
	}
	if t.MaxStock == 0 {
		t.MaxStock = 200
	}
	return t, nil
}

func (sc seedCoupon) toCoupon() (*domain.Coupon, error) {
	kind := domain.CouponKind(strings.ToUpper(sc.Kind))
	if kind != domain.CouponPercent && kind != domain.CouponFlat {
		return nil, fmt.Errorf("coupon %s: invalid kind %q", sc.Code, sc.Kind)
	}
	value, err := decimal.NewFromString(sc.Value)
	if err != nil || value.IsNegative() {
		return nil, fmt.Errorf("coupon %s: invalid value %q", sc.Code, sc.Value)
	}
	minSubtotal := decimal.Zero
	if sc.MinSubtotal != "" {
		if minSubtotal, err = decimal.NewFromString(sc.MinSubtotal); err != nil {
			return nil, fmt.Errorf("coupon %s: invalid minSubtotal %q", sc.Code, sc.MinSubtotal)
		}
	}
	c := &domain.Coupon{
		Code:        strings.ToUpper(sc.Code),
		Kind:        kind,
		Value:       value,
		MinSubtotal: minSubtotal,
		Active:      !sc.Inactive,
	}
	if sc.ExpiresAt != "" {
		at, err := time.Parse(time.RFC3339, sc.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("coupon %s: invalid expiresAt %q", sc.Code, sc.ExpiresAt)
		}
		c.ExpiresAt = &at
	}
	return c, nil
}
