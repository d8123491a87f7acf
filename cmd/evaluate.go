package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/parcelworks/landscout/internal/batch"
	"github.com/parcelworks/landscout/internal/geo"
	"github.com/parcelworks/landscout/internal/importer"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/opportunity"
)

var (
	evalFile     string
	evalParcelID string
	evalAddress  string
	evalCity     string
	evalState    string
	evalZip      string
	evalPrice    float64
	evalLotAcres float64
	evalLat      float64
	evalLon      float64
)

// worklistParcel is the YAML shape of one parcel in an evaluation worklist.
type worklistParcel struct {
	ID           string   `yaml:"id"`
	Address      string   `yaml:"address"`
	City         string   `yaml:"city"`
	State        string   `yaml:"state"`
	PostalCode   string   `yaml:"postal_code"`
	ListPrice    *float64 `yaml:"list_price"`
	SalePrice    *float64 `yaml:"sale_price"`
	Sqft         *float64 `yaml:"sqft"`
	LotSizeAcres *float64 `yaml:"lot_size_acres"`
	Latitude     *float64 `yaml:"latitude"`
	Longitude    *float64 `yaml:"longitude"`
	URL          string   `yaml:"url"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score land parcels for acquisition urgency",
	Long:  "Evaluates one parcel from flags, or a YAML worklist of parcels with --file. Parcels that fail the eligibility filters are reported with the failing filter and leave no record.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		scorer := opportunity.NewScorer(st, geo.NewSearcher(st), cfg.Land, cfg.Urgency)

		if evalFile != "" {
			return evaluateWorklist(ctx, cmd, scorer)
		}

		if evalParcelID == "" || evalAddress == "" {
			return eris.New("either --file or both --parcel-id and --address are required")
		}

		parcel := &model.Parcel{
			ID:         evalParcelID,
			Address:    evalAddress,
			StreetName: importer.ExtractStreetName(evalAddress),
			City:       evalCity,
			State:      evalState,
			PostalCode: evalZip,
		}
		if evalPrice > 0 {
			parcel.ListPrice = &evalPrice
		}
		if evalLotAcres > 0 {
			parcel.LotSizeAcres = &evalLotAcres
		}
		if evalLat != 0 || evalLon != 0 {
			parcel.Latitude = &evalLat
			parcel.Longitude = &evalLon
		}

		opp, err := scorer.Evaluate(ctx, parcel)
		var rej *opportunity.Rejection
		if errors.As(err, &rej) {
			cmd.Printf("Parcel %s rejected: %s\n", parcel.ID, rej.Reason)
			return nil
		}
		if err != nil {
			return err
		}

		cmd.Printf("Parcel %s: %d/100 (%s)\n%s\n", opp.ParcelID, opp.UrgencyScore, opp.UrgencyLevel, opp.Notes)
		return nil
	},
}

func evaluateWorklist(ctx context.Context, cmd *cobra.Command, scorer *opportunity.Scorer) error {
	data, err := os.ReadFile(evalFile)
	if err != nil {
		return eris.Wrapf(err, "evaluate: read worklist %s", evalFile)
	}

	var parcels []worklistParcel
	if err := yaml.Unmarshal(data, &parcels); err != nil {
		return eris.Wrap(err, "evaluate: parse worklist")
	}

	var scored, rejected int
	summary, err := batch.Run(ctx, "evaluate parcels", parcels,
		func(p worklistParcel) string { return p.ID },
		func(ctx context.Context, p worklistParcel) error {
			opp, err := scorer.Evaluate(ctx, &model.Parcel{
				ID:           p.ID,
				Address:      p.Address,
				StreetName:   importer.ExtractStreetName(p.Address),
				City:         p.City,
				State:        p.State,
				PostalCode:   p.PostalCode,
				ListPrice:    p.ListPrice,
				SalePrice:    p.SalePrice,
				Sqft:         p.Sqft,
				LotSizeAcres: p.LotSizeAcres,
				Latitude:     p.Latitude,
				Longitude:    p.Longitude,
				URL:          p.URL,
			})
			var rej *opportunity.Rejection
			if errors.As(err, &rej) {
				rejected++
				cmd.Printf("  %s rejected: %s\n", p.ID, rej.Reason)
				return nil
			}
			if err != nil {
				return err
			}
			scored++
			cmd.Printf("  %s: %d/100 (%s)\n", opp.ParcelID, opp.UrgencyScore, opp.UrgencyLevel)
			return nil
		})
	if err != nil {
		return err
	}

	cmd.Printf("Evaluated %d parcels: %d scored, %d rejected, %d failed\n",
		summary.Total, scored, rejected, summary.Failed)
	return nil
}

func init() {
	evaluateCmd.Flags().StringVar(&evalFile, "file", "", "YAML worklist of parcels to evaluate")
	evaluateCmd.Flags().StringVar(&evalParcelID, "parcel-id", "", "parcel identifier")
	evaluateCmd.Flags().StringVar(&evalAddress, "address", "", "parcel street address")
	evaluateCmd.Flags().StringVar(&evalCity, "city", "Asheville", "parcel city")
	evaluateCmd.Flags().StringVar(&evalState, "state", "NC", "parcel state")
	evaluateCmd.Flags().StringVar(&evalZip, "zip", "", "parcel postal code")
	evaluateCmd.Flags().Float64Var(&evalPrice, "price", 0, "parcel list price")
	evaluateCmd.Flags().Float64Var(&evalLotAcres, "lot-acres", 0, "parcel lot size in acres")
	evaluateCmd.Flags().Float64Var(&evalLat, "lat", 0, "parcel latitude")
	evaluateCmd.Flags().Float64Var(&evalLon, "lon", 0, "parcel longitude")
	rootCmd.AddCommand(evaluateCmd)
}
