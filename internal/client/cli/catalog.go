package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/labdesk/internal/client/api"
	"github.com/iudanet/labdesk/internal/models"
)

var fundingHeaders = []string{"ID", "Name", "Description"}

func fundingRows(sources []models.FundingSource) [][]string {
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		rows = append(rows, []string{formatID(s.FundingSourceID), s.Name, orDash(s.Description)})
	}
	return rows
}

func (c *Cli) fundingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "funding",
		Short: "Manage funding sources",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List funding sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := c.client.ListFundingSources(cmd.Context())
			if err != nil {
				return err
			}
			c.printTable("No funding sources found.", fundingHeaders, fundingRows(sources))
			return nil
		},
	}

	var src models.FundingSource
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a funding source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(src.Name) == "" {
				return fmt.Errorf("--name is required")
			}

			created, err := c.client.CreateFundingSource(cmd.Context(), src)
			if err != nil {
				return err
			}

			c.success("Funding source #%d %q added", created.FundingSourceID, created.Name)
			return nil
		},
	}
	add.Flags().StringVar(&src.Name, "name", "", "funding source name")
	add.Flags().StringVar(&src.Description, "description", "", "description")

	cmd.AddCommand(list, add)
	return cmd
}

func (c *Cli) publicationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publications",
		Aliases: []string{"publication", "pubs"},
		Short:   "Manage publications",
	}

	var projectFilter int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List publications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pubs, err := c.client.ListPublications(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(pubs))
			for _, p := range pubs {
				if projectFilter > 0 && p.ProjectID != projectFilter {
					continue
				}
				rows = append(rows, []string{
					formatID(p.PublicationID),
					p.Title,
					orDash(p.PublicationDate),
					formatID(p.ProjectID),
					orDash(p.Link),
					fmt.Sprintf("%d", len(p.FileLinks)),
				})
			}
			c.printTable("No publications found.", []string{"ID", "Title", "Date", "Project", "Link", "Files"}, rows)
			return nil
		},
	}
	list.Flags().Int64Var(&projectFilter, "project", 0, "only publications of this project")

	var pub models.Publication
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a publication",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(pub.Title) == "" {
				return fmt.Errorf("--title is required")
			}
			if err := validateDate("date", pub.PublicationDate); err != nil {
				return err
			}

			created, err := c.client.CreatePublication(cmd.Context(), pub)
			if err != nil {
				return err
			}

			c.success("Publication #%d %q added", created.PublicationID, created.Title)
			return nil
		},
	}
	bindPublicationFlags(add, &pub)

	var patch models.Publication
	update := &cobra.Command{
		Use:   "update <publication-id>",
		Short: "Change fields of a publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "publication")
			if err != nil {
				return err
			}
			if err := validateDate("date", patch.PublicationDate); err != nil {
				return err
			}

			pubs, err := c.client.ListPublications(ctx)
			if err != nil {
				return err
			}
			current, err := findPublication(pubs, id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				current.Title = patch.Title
			}
			if flags.Changed("abstract") {
				current.AbstractText = patch.AbstractText
			}
			if flags.Changed("date") {
				current.PublicationDate = patch.PublicationDate
			}
			if flags.Changed("link") {
				current.Link = patch.Link
			}
			if flags.Changed("file-link") {
				current.FileLinks = patch.FileLinks
			}
			if flags.Changed("project") {
				current.ProjectID = patch.ProjectID
			}

			updated, err := c.client.UpdatePublication(ctx, current)
			if err != nil {
				return err
			}

			c.success("Publication #%d updated", updated.PublicationID)
			return nil
		},
	}
	bindPublicationFlags(update, &patch)

	del := &cobra.Command{
		Use:   "delete <publication-id>",
		Short: "Delete a publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "publication")
			if err != nil {
				return err
			}
			if err := c.client.DeletePublication(cmd.Context(), id); err != nil {
				return err
			}
			c.success("Publication #%d deleted", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, update, del)
	return cmd
}

func bindPublicationFlags(cmd *cobra.Command, p *models.Publication) {
	cmd.Flags().StringVar(&p.Title, "title", "", "title")
	cmd.Flags().StringVar(&p.AbstractText, "abstract", "", "abstract")
	cmd.Flags().StringVar(&p.PublicationDate, "date", "", "publication date, YYYY-MM-DD")
	cmd.Flags().StringVar(&p.Link, "link", "", "link to the publication")
	cmd.Flags().StringSliceVar(&p.FileLinks, "file-link", nil, "attached file link (repeatable)")
	cmd.Flags().Int64Var(&p.ProjectID, "project", 0, "project id")
}

func findPublication(pubs []models.Publication, id int64) (models.Publication, error) {
	for _, p := range pubs {
		if p.PublicationID == id {
			return p, nil
		}
	}
	return models.Publication{}, fmt.Errorf("publication #%d: %w", id, api.ErrNotFound)
}

func (c *Cli) equipmentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equipment",
		Short: "Manage laboratory equipment",
	}

	var statusFilter string
	list := &cobra.Command{
		Use:   "list",
		Short: "List equipment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.client.ListEquipment(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(items))
			for _, e := range items {
				if statusFilter != "" && !strings.EqualFold(e.AvailabilityStatus, statusFilter) {
					continue
				}
				rows = append(rows, []string{
					formatID(e.EquipmentID),
					e.Name,
					orDash(e.Location),
					orDash(e.AvailabilityStatus),
				})
			}
			c.printTable("No equipment found.", []string{"ID", "Name", "Location", "Availability"}, rows)
			return nil
		},
	}
	list.Flags().StringVar(&statusFilter, "status", "", "only equipment with this availability status")

	var item models.Equipment
	add := &cobra.Command{
		Use:   "add",
		Short: "Register equipment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("--name is required")
			}

			created, err := c.client.CreateEquipment(cmd.Context(), item)
			if err != nil {
				return err
			}

			c.success("Equipment #%d %q added", created.EquipmentID, created.Name)
			return nil
		},
	}
	bindEquipmentFlags(add, &item, "AVAILABLE")

	var patch models.Equipment
	update := &cobra.Command{
		Use:   "update <equipment-id>",
		Short: "Change fields of an equipment item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "equipment")
			if err != nil {
				return err
			}

			items, err := c.client.ListEquipment(ctx)
			if err != nil {
				return err
			}
			current, err := findEquipment(items, id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				current.Name = patch.Name
			}
			if flags.Changed("description") {
				current.Description = patch.Description
			}
			if flags.Changed("location") {
				current.Location = patch.Location
			}
			if flags.Changed("status") {
				current.AvailabilityStatus = patch.AvailabilityStatus
			}

			updated, err := c.client.UpdateEquipment(ctx, current)
			if err != nil {
				return err
			}

			c.success("Equipment #%d updated", updated.EquipmentID)
			return nil
		},
	}
	bindEquipmentFlags(update, &patch, "")

	del := &cobra.Command{
		Use:   "delete <equipment-id>",
		Short: "Remove an equipment item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "equipment")
			if err != nil {
				return err
			}
			if err := c.client.DeleteEquipment(cmd.Context(), id); err != nil {
				return err
			}
			c.success("Equipment #%d deleted", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, update, del)
	return cmd
}

func bindEquipmentFlags(cmd *cobra.Command, e *models.Equipment, defaultStatus string) {
	cmd.Flags().StringVar(&e.Name, "name", "", "name")
	cmd.Flags().StringVar(&e.Description, "description", "", "description")
	cmd.Flags().StringVar(&e.Location, "location", "", "location")
	cmd.Flags().StringVar(&e.AvailabilityStatus, "status", defaultStatus, "availability status")
}

func findEquipment(items []models.Equipment, id int64) (models.Equipment, error) {
	for _, e := range items {
		if e.EquipmentID == id {
			return e, nil
		}
	}
	return models.Equipment{}, fmt.Errorf("equipment #%d: %w", id, api.ErrNotFound)
}
