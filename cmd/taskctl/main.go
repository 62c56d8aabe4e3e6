package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	apiclient "github.com/Anveeka07/TaskManager/pkg/api/client"
)

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
}

var buildVersion = "dev"

const requestTimeout = 15 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "register":
		err = commandRegister(args)
	case "login":
		err = commandLogin(args)
	case "logout":
		err = commandLogout()
	case "me":
		err = commandMe()
	case "health":
		err = commandHealth(args)
	case "tasks", "task":
		err = commandTasks(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+apiclient.DefaultBaseURL+")")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" {
		return errors.New("--name is required")
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readSecret(*password)
	if err != nil {
		return err
	}

	cfg, _ := loadConfig()
	applyAPIBase(&cfg, *apiBase)
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	session, err := client.Register(ctx, *name, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccessToken = session.Token
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("registered %s <%s>\n", session.User.Name, session.User.Email)
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+apiclient.DefaultBaseURL+")")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readSecret(*password)
	if err != nil {
		return err
	}

	cfg, _ := loadConfig()
	applyAPIBase(&cfg, *apiBase)
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	session, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccessToken = session.Token
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("login successful")
	return nil
}

func commandLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.AccessToken = ""
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func commandMe() error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\t%s\n", user.ID, user.Name, user.Email)
	return nil
}

func commandHealth(args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	cfg, _ := loadConfig()
	applyAPIBase(&cfg, *apiBase)
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("ok=%t database=%s uptime=%s\n", health.OK, health.Database, (time.Duration(health.Uptime * float64(time.Second))).Round(time.Second))
	if health.Database != "up" {
		return errors.New("database is unreachable")
	}
	return nil
}

func commandTasks(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: taskctl tasks [list|add|show|update|done|delete]")
	}
	sub := args[0]
	switch sub {
	case "list", "ls":
		return tasksList(args[1:])
	case "add", "create":
		return tasksAdd(args[1:])
	case "show", "get":
		return tasksShow(args[1:])
	case "update", "edit":
		return tasksUpdate(args[1:])
	case "done":
		return tasksDone(args[1:])
	case "delete", "rm":
		return tasksDelete(args[1:])
	default:
		return fmt.Errorf("unknown tasks command: %s", sub)
	}
}

func tasksList(args []string) error {
	fs := flag.NewFlagSet("tasks list", flag.ExitOnError)
	status := fs.String("status", "", "Only show tasks with this status")
	limit := fs.Int("limit", 0, "Maximum number of tasks to display")
	fs.Parse(args)

	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	tasks, err := client.ListTasks(ctx)
	if err != nil {
		return err
	}
	filtered := tasks[:0]
	for _, t := range tasks {
		if *status != "" && !strings.EqualFold(t.Status, *status) {
			continue
		}
		filtered = append(filtered, t)
	}
	if *limit > 0 && *limit < len(filtered) {
		filtered = filtered[:*limit]
	}
	if len(filtered) == 0 {
		fmt.Println("no tasks")
		return nil
	}
	printTasks(os.Stdout, filtered)
	return nil
}

func tasksAdd(args []string) error {
	fs := flag.NewFlagSet("tasks add", flag.ExitOnError)
	title := fs.String("title", "", "Task title")
	description := fs.String("description", "", "Optional description")
	status := fs.String("status", "", "Status (pending|in progress|completed)")
	priority := fs.String("priority", "", "Priority (low|medium|high)")
	fs.Parse(args)

	if strings.TrimSpace(*title) == "" && fs.NArg() > 0 {
		*title = strings.Join(fs.Args(), " ")
	}
	if strings.TrimSpace(*title) == "" {
		return errors.New("--title is required")
	}

	input := apiclient.TaskInput{Title: apiclient.String(*title)}
	if *description != "" {
		input.Description = apiclient.String(*description)
	}
	if *status != "" {
		input.Status = apiclient.String(*status)
	}
	if *priority != "" {
		input.Priority = apiclient.String(*priority)
	}

	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	task, err := client.CreateTask(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("task created: %s (%s, %s)\n", task.ID, task.Status, task.Priority)
	return nil
}

func tasksShow(args []string) error {
	id, err := taskIDArg("tasks show", args)
	if err != nil {
		return err
	}
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	task, err := client.GetTask(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("id:          %s\n", task.ID)
	fmt.Printf("title:       %s\n", task.Title)
	if task.Description != "" {
		fmt.Printf("description: %s\n", task.Description)
	}
	fmt.Printf("status:      %s\n", task.Status)
	fmt.Printf("priority:    %s\n", task.Priority)
	fmt.Printf("created:     %s\n", task.CreatedAt.Local().Format(time.RFC3339))
	fmt.Printf("updated:     %s\n", task.UpdatedAt.Local().Format(time.RFC3339))
	return nil
}

func tasksUpdate(args []string) error {
	fs := flag.NewFlagSet("tasks update", flag.ExitOnError)
	id := fs.String("id", "", "Task identifier")
	title := fs.String("title", "", "New title")
	description := fs.String("description", "", "New description")
	status := fs.String("status", "", "New status")
	priority := fs.String("priority", "", "New priority")
	positional, rest := splitPositional(args)
	fs.Parse(rest)

	if strings.TrimSpace(*id) == "" {
		*id = positional
	}
	if strings.TrimSpace(*id) == "" && fs.NArg() > 0 {
		*id = fs.Arg(0)
	}
	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}

	var input apiclient.TaskInput
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			input.Title = apiclient.String(*title)
		case "description":
			input.Description = apiclient.String(*description)
		case "status":
			input.Status = apiclient.String(*status)
		case "priority":
			input.Priority = apiclient.String(*priority)
		}
	})
	if input == (apiclient.TaskInput{}) {
		return errors.New("nothing to update; pass at least one of --title, --description, --status, --priority")
	}
	return applyUpdate(*id, input)
}

func tasksDone(args []string) error {
	id, err := taskIDArg("tasks done", args)
	if err != nil {
		return err
	}
	return applyUpdate(id, apiclient.TaskInput{Status: apiclient.String("Completed")})
}

func applyUpdate(id string, input apiclient.TaskInput) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	task, err := client.UpdateTask(ctx, id, input)
	if err != nil {
		return err
	}
	fmt.Printf("task updated: %s status=%s priority=%s\n", task.ID, task.Status, task.Priority)
	return nil
}

func tasksDelete(args []string) error {
	id, err := taskIDArg("tasks delete", args)
	if err != nil {
		return err
	}
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := client.DeleteTask(ctx, id); err != nil {
		return err
	}
	fmt.Println("task deleted")
	return nil
}

func taskIDArg(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	id := fs.String("id", "", "Task identifier")
	positional, rest := splitPositional(args)
	fs.Parse(rest)
	if strings.TrimSpace(*id) == "" {
		*id = positional
	}
	if strings.TrimSpace(*id) == "" && fs.NArg() > 0 {
		*id = fs.Arg(0)
	}
	if strings.TrimSpace(*id) == "" {
		return "", errors.New("--id is required")
	}
	return strings.TrimSpace(*id), nil
}

// splitPositional peels a leading task id off args so flags may follow it.
func splitPositional(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func printTasks(w io.Writer, tasks []apiclient.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tTITLE\tCREATED")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Title, t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func authedClient() (*apiclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errors.New("please login first using 'taskctl login'")
	}
	return apiclient.New(cfg.APIBaseURL, apiclient.WithToken(token))
}

func readSecret(flagValue string) (string, error) {
	secret := strings.TrimSpace(flagValue)
	if secret != "" {
		return secret, nil
	}
	fmt.Print("Password: ")
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(bytes), nil
}

func applyAPIBase(cfg *cliConfig, override string) {
	if v := strings.TrimSpace(override); v != "" {
		cfg.APIBaseURL = v
	} else if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = apiclient.DefaultBaseURL
	}
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: apiclient.DefaultBaseURL}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = apiclient.DefaultBaseURL
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	if override := strings.TrimSpace(os.Getenv("TASKCTL_CONFIG")); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "taskmanager", "config.json"), nil
}

func printUsage() {
	fmt.Printf("taskctl %s\n\n", buildVersion)
	fmt.Print(`Usage:
	taskctl register --name "Ada" --email user@example.com [--password secret] [--api http://localhost:7000]
	taskctl login --email user@example.com [--password secret] [--api http://localhost:7000]
	taskctl logout
	taskctl me
	taskctl health [--api http://localhost:7000]
	taskctl tasks list [--status pending] [--limit N]
	taskctl tasks add --title "Buy milk" [--description text] [--status s] [--priority p]
	taskctl tasks show <task-id>
	taskctl tasks update <task-id> [--title t] [--description d] [--status s] [--priority p]
	taskctl tasks done <task-id>
	taskctl tasks delete <task-id>
	taskctl version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
