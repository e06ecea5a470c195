/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/Bhuvanani14/goodcity/config"
	"github.com/Bhuvanani14/goodcity/internal/db"
	"github.com/Bhuvanani14/goodcity/internal/store"
	"github.com/Bhuvanani14/goodcity/types"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the government-body reference table",
	Long: `Clears and repopulates the government_bodies reference table with the
department dataset used to route issue categories to responsible bodies.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
		defer dbConn.Close()

		repo := store.NewGovernmentBodyRepository(dbConn)
		if err := repo.DeleteAll(cmd.Context()); err != nil {
			return fmt.Errorf("clear government bodies failed: %w", err)
		}

		for _, body := range governmentBodySeed {
			if _, err := repo.Insert(cmd.Context(), body); err != nil {
				return fmt.Errorf("seed %q failed: %w", body.Name, err)
			}
		}

		fmt.Printf("seeded %d government bodies\n", len(governmentBodySeed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func body(name, category, department, jurisdiction, priority string) types.GovernmentBody {
	return types.GovernmentBody{
		Name:         name,
		Category:     category,
		Department:   department,
		Jurisdiction: jurisdiction,
		Priority:     priority,
		ContactInfo: types.ContactInfo{
			Phone: "1800-XXX-XXXX",
		},
	}
}

var governmentBodySeed = []types.GovernmentBody{
	// Infrastructure & road safety
	body("Municipal Corporation (Roads & Infrastructure Department)", "infrastructure", "Roads & Infrastructure", types.JurisdictionMunicipal, types.BodyPrimary),
	body("Public Works Department (PWD)", "infrastructure", "Public Works", types.JurisdictionState, types.BodyPrimary),
	body("National Highways Authority of India (NHAI)", "infrastructure", "Highways", types.JurisdictionCentral, types.BodyPrimary),
	body("State Transport Department", "infrastructure", "Transport", types.JurisdictionState, types.BodySecondary),

	// Sanitation & waste management
	body("Municipal Corporation (Sanitation Department)", "sanitation", "Sanitation", types.JurisdictionMunicipal, types.BodyPrimary),
	body("Swachh Bharat Mission (Central Government)", "sanitation", "Swachh Bharat Mission", types.JurisdictionCentral, types.BodyPrimary),
	body("State Pollution Control Board", "sanitation", "Pollution Control", types.JurisdictionState, types.BodySecondary),
	body("Local Ward Councilor", "sanitation", "Local Governance", types.JurisdictionLocal, types.BodySupporting),

	// Utilities
	body("Municipal Corporation (Water/Electricity Department)", "utilities", "Utilities", types.JurisdictionMunicipal, types.BodyPrimary),
	body("State Electricity Board", "utilities", "Electricity", types.JurisdictionState, types.BodyPrimary),
	body("Local Water Supply Authority", "utilities", "Water Supply", types.JurisdictionMunicipal, types.BodySecondary),
	body("Public Health Engineering Department", "utilities", "Public Health Engineering", types.JurisdictionState, types.BodySecondary),

	// Environment
	body("Municipal Corporation (Gardening Department)", "environment", "Gardening & Parks", types.JurisdictionMunicipal, types.BodyPrimary),
	body("Forest Department", "environment", "Forests", types.JurisdictionState, types.BodyPrimary),
	body("State Pollution Control Board", "environment", "Pollution Control", types.JurisdictionState, types.BodySecondary),
	body("Ministry of Environment, Forest and Climate Change", "environment", "Environment", types.JurisdictionCentral, types.BodySecondary),

	// Civic administration
	body("Municipal Corporation (General Administration)", "civic", "General Administration", types.JurisdictionMunicipal, types.BodyPrimary),
	body("Local Ward Councilor", "civic", "Local Governance", types.JurisdictionLocal, types.BodyPrimary),
	body("State Urban Development Department", "civic", "Urban Development", types.JurisdictionState, types.BodySecondary),
	body("Public Grievance Redressal System", "civic", "Public Grievances", types.JurisdictionCentral, types.BodySupporting),

	// Safety
	body("Local Police Station", "safety", "Police", types.JurisdictionLocal, types.BodyPrimary),
	body("Municipal Corporation (Security Department)", "safety", "Municipal Security", types.JurisdictionMunicipal, types.BodySecondary),
	body("Traffic Police", "safety", "Traffic Police", types.JurisdictionState, types.BodyPrimary),
	body("State Home Department", "safety", "Home Affairs", types.JurisdictionState, types.BodySecondary),
}
