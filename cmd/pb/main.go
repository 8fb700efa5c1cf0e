package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pulseboard/internal/app"
	"pulseboard/internal/config"
	"pulseboard/internal/db"
	"pulseboard/internal/domain"
	"pulseboard/internal/engine"
	"pulseboard/internal/repo"
	"pulseboard/internal/score"
	"pulseboard/internal/server"
	"pulseboard/internal/stats"
)

var rootCmd = &cobra.Command{
	Use:   "pb",
	Short: "Pulseboard CLI",
	Long: `Pulseboard tracks the health of a project fleet in one place.
Core concepts:
- Workspace: your .pulseboard directory holding the database; pulseboard.yml next to it supplies metric templates.
- Project: a client engagement with weighted health metrics, monthly hour budgets, tasks and deliveries.
- Health score: the weighted average of metric values, rounded; bands are excellent/good/average/poor.
- Engagement: four behavioral factors (meetings, response time, contributions, feedback) folded into the engagement metric.
- Team: shared capacity (developers x hours/day x working days) that utilization figures divide by.
- Timeline: deliveries laid out as Gantt lanes, one lane per project.
- Event log: diary of changes, view with 'pb log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PULSEBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(engagementCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(deliveryCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(hoursCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(teamCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectUpdateCmd())
	prj.AddCommand(projectDeleteCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx, repo.ProjectFilters{Query: query})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Client", "Health", "Band", "Start", "Months"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, p.Client, p.HealthScore, score.Classify(p.HealthScore), p.StartDate, p.Duration})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name or client")
	return cmd
}

func projectCreateCmd() *cobra.Command {
	var opts engine.ProjectCreateOptions
	var sold, allocated float64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("sold-hours") || cmd.Flags().Changed("allocated-hours") {
				opts.Hours = &domain.Hours{Sold: sold, Allocated: allocated}
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreateProject(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "project name")
	cmd.Flags().StringVar(&opts.Client, "client", "", "client name")
	cmd.Flags().StringVar(&opts.StartDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.Duration, "duration", 6, "duration in months")
	cmd.Flags().StringVar(&opts.Template, "template", "", "metric template (defaults to configured default)")
	cmd.Flags().Float64Var(&sold, "sold-hours", 0, "monthly hours sold")
	cmd.Flags().Float64Var(&allocated, "allocated-hours", 0, "monthly hours allocated")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func projectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p, err := r.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func projectUpdateCmd() *cobra.Command {
	var name, client, start string
	var duration int
	var isNew bool
	var sold, allocated float64
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update project fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts engine.ProjectUpdateOptions
			if cmd.Flags().Changed("name") {
				opts.Name = &name
			}
			if cmd.Flags().Changed("client") {
				opts.Client = &client
			}
			if cmd.Flags().Changed("start") {
				opts.StartDate = &start
			}
			if cmd.Flags().Changed("duration") {
				opts.Duration = &duration
			}
			if cmd.Flags().Changed("is-new") {
				opts.IsNew = &isNew
			}
			if cmd.Flags().Changed("sold-hours") || cmd.Flags().Changed("allocated-hours") {
				opts.Hours = &domain.Hours{Sold: sold, Allocated: allocated}
				opts.HoursSet = true
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.UpdateProject(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&client, "client", "", "client name")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&duration, "duration", 0, "duration in months")
	cmd.Flags().BoolVar(&isNew, "is-new", false, "mark as new")
	cmd.Flags().Float64Var(&sold, "sold-hours", 0, "monthly hours sold")
	cmd.Flags().Float64Var(&allocated, "allocated-hours", 0, "monthly hours allocated")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its tasks and deliveries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteProject(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func engagementCmd() *cobra.Command {
	eng := &cobra.Command{Use: "engagement", Short: "Manage engagement factors"}
	eng.AddCommand(engagementSetCmd())
	eng.AddCommand(engagementShowCmd())
	return eng
}

func engagementSetCmd() *cobra.Command {
	var f domain.EngagementFactors
	cmd := &cobra.Command{
		Use:   "set <project-id>",
		Short: "Set engagement factors and recompute health",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.SetEngagementFactors(ctx, args[0], f)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().Float64Var(&f.MeetingAttendance, "meetings", 0, "meeting attendance percent (0-100)")
	cmd.Flags().Float64Var(&f.ResponseTime, "response-time", 0, "average response time in hours (0-24)")
	cmd.Flags().Float64Var(&f.Contributions, "contributions", 0, "contributions per week")
	cmd.Flags().Float64Var(&f.TeamFeedback, "feedback", 0, "team feedback score (0-100)")
	return cmd
}

func engagementShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show engagement factors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				f, err := r.GetEngagementFactors(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	return cmd
}

func taskCmd() *cobra.Command {
	tsk := &cobra.Command{Use: "task", Short: "Manage tasks"}
	tsk.AddCommand(taskCreateCmd())
	tsk.AddCommand(taskListCmd())
	tsk.AddCommand(taskUpdateCmd())
	tsk.AddCommand(taskDeleteCmd())
	return tsk
}

func taskCreateCmd() *cobra.Command {
	var opts engine.TaskCreateOptions
	var size string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create task",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Size = domain.TaskSize(size)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&opts.Title, "title", "", "task title")
	cmd.Flags().StringVar(&opts.PipefyLink, "pipefy-link", "", "pipefy card link")
	cmd.Flags().StringVar(&opts.Status, "status", "", "status (pending, in_progress, completed)")
	cmd.Flags().StringVar(&size, "size", "M", "size (PP, P, M, G, GG)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var f repo.TaskFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tasks, err := r.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Project", "Title", "Status", "Size", "Weeks"})
				for _, t := range tasks {
					tw.AppendRow(table.Row{t.ID, t.ProjectID, t.Title, t.Status, t.Size, t.Size.DurationWeeks()})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project id filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var title, link, status, size string
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts engine.TaskUpdateOptions
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("pipefy-link") {
				opts.PipefyLink = &link
			}
			if cmd.Flags().Changed("status") {
				opts.Status = &status
			}
			if cmd.Flags().Changed("size") {
				s := domain.TaskSize(size)
				opts.Size = &s
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.UpdateTask(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&link, "pipefy-link", "", "pipefy card link")
	cmd.Flags().StringVar(&status, "status", "", "status (pending, in_progress, completed)")
	cmd.Flags().StringVar(&size, "size", "", "size (PP, P, M, G, GG)")
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteTask(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func deliveryCmd() *cobra.Command {
	del := &cobra.Command{Use: "delivery", Short: "Manage deliveries"}
	del.AddCommand(deliveryCreateCmd())
	del.AddCommand(deliveryListCmd())
	del.AddCommand(deliveryUpdateCmd())
	del.AddCommand(deliveryDeleteCmd())
	return del
}

func deliveryCreateCmd() *cobra.Command {
	var opts engine.DeliveryCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.CreateDelivery(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&opts.Name, "name", "", "delivery name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.StartDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.EndDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Stage, "stage", "", "stage (planning, development, testing, review, deployment)")
	cmd.Flags().Float64Var(&opts.Progress, "progress", 0, "progress percent (0-100)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func deliveryListCmd() *cobra.Command {
	var projects []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deliveries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListDeliveries(ctx, projects)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Project", "Name", "Stage", "Start", "End", "Progress"})
				for _, d := range items {
					tw.AppendRow(table.Row{d.ID, d.ProjectID, d.Name, d.Stage, d.StartDate, d.EndDate, d.Progress})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&projects, "project", nil, "project id filter (repeatable)")
	return cmd
}

func deliveryUpdateCmd() *cobra.Command {
	var name, desc, start, end, stage string
	var progress float64
	cmd := &cobra.Command{
		Use:   "update <delivery-id>",
		Short: "Update delivery fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts engine.DeliveryUpdateOptions
			if cmd.Flags().Changed("name") {
				opts.Name = &name
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &desc
			}
			if cmd.Flags().Changed("start") {
				opts.StartDate = &start
			}
			if cmd.Flags().Changed("end") {
				opts.EndDate = &end
			}
			if cmd.Flags().Changed("stage") {
				opts.Stage = &stage
			}
			if cmd.Flags().Changed("progress") {
				opts.Progress = &progress
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.UpdateDelivery(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "delivery name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&stage, "stage", "", "stage")
	cmd.Flags().Float64Var(&progress, "progress", 0, "progress percent (0-100)")
	return cmd
}

func deliveryDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <delivery-id>",
		Short: "Delete a delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteDelivery(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func timelineCmd() *cobra.Command {
	var projects []string
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show the delivery timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				layout, err := e.Timeline(ctx, projects)
				if err != nil {
					return err
				}
				return printJSONOrTable(layout)
			})
		},
	}
	cmd.Flags().StringArrayVar(&projects, "project", nil, "project id filter (repeatable)")
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the fleet dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.Dashboard(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}
				ov := d.Overview
				fmt.Printf("Projects: %d (avg health %d, %d excellent, %d at risk)\n",
					ov.ProjectCount, ov.AverageHealthScore, ov.ExcellentCount, ov.AtRiskCount)
				fmt.Printf("Hours: %.0f sold / %.0f allocated of %.0f capacity (%.1f%% used, %.0f available)\n",
					ov.TotalSoldHours, ov.TotalAllocated, ov.TeamHoursPerMonth, ov.HoursUtilization, ov.AvailableHours)
				for _, w := range ov.Warnings {
					fmt.Println("warning:", w)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Project", "Allocated", "Utilization"})
				for _, a := range ov.TopAllocations {
					tw.AppendRow(table.Row{a.Name, a.AllocatedHours, fmt.Sprintf("%.1f%%", a.Utilization)})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func hoursCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hours <project-id>",
		Short: "Show a project's hours against team capacity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.ProjectHours(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Hours report across all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				projects, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{})
				if err != nil {
					return err
				}
				team, err := e.TeamConfig(ctx)
				if err != nil {
					return err
				}
				capacity := team.TotalHoursPerMonth()
				summaries := make([]stats.HoursSummary, 0, len(projects))
				for _, p := range projects {
					summaries = append(summaries, stats.SummarizeHours(p, capacity))
				}
				if viper.GetBool("json") {
					return printJSON(summaries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Project", "Sold", "Allocated", "Sold %", "Used %", "Flags"})
				for i, s := range summaries {
					var flags []string
					if s.OverAllocated {
						flags = append(flags, "over-allocated")
					}
					if s.SoldExceeded {
						flags = append(flags, "sold-exceeded")
					}
					tw.AppendRow(table.Row{
						projects[i].Name, s.SoldHours, s.AllocatedHours,
						fmt.Sprintf("%.1f", s.SoldUtilization), fmt.Sprintf("%.1f", s.Utilization),
						strings.Join(flags, ", "),
					})
				}
				tw.Render()
				fmt.Printf("team capacity: %.0f hours/month\n", capacity)
				return nil
			})
		},
	}
	return cmd
}

func teamCmd() *cobra.Command {
	team := &cobra.Command{Use: "team", Short: "Manage team capacity"}
	team.AddCommand(teamShowCmd())
	team.AddCommand(teamSetCmd())
	return team
}

func teamShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show team configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.TeamConfig(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(c)
				}
				fmt.Printf("%d developers x %dh/day x %d days = %.0f hours/month\n",
					c.Developers, c.HoursPerDay, c.WorkingDays, c.TotalHoursPerMonth())
				return nil
			})
		},
	}
	return cmd
}

func teamSetCmd() *cobra.Command {
	var developers, hoursPerDay, workingDays int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update team configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts engine.TeamUpdateOptions
			if cmd.Flags().Changed("developers") {
				opts.Developers = &developers
			}
			if cmd.Flags().Changed("hours-per-day") {
				opts.HoursPerDay = &hoursPerDay
			}
			if cmd.Flags().Changed("working-days") {
				opts.WorkingDays = &workingDays
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.UpdateTeamConfig(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().IntVar(&developers, "developers", 0, "developer count")
	cmd.Flags().IntVar(&hoursPerDay, "hours-per-day", 0, "hours per developer per day (1-8)")
	cmd.Flags().IntVar(&workingDays, "working-days", 0, "working days per month (1-23)")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage pulseboard.yml"}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default pulseboard.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			for _, name := range cfg.UnbalancedTemplates() {
				fmt.Printf("warning: template %q weights do not sum to 1.0\n", name)
			}
			fmt.Println("configuration is valid")
			return nil
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, projectID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(ctx, n, projectID, evtType)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&projectID, "project", "", "project id filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			defer a.Close()
			handler, err := server.New(server.Config{Engine: a.Engine, BasePath: basePath})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Pulseboard API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	a, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a.Engine)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	a, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, repo.Repo{DB: a.DB})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
