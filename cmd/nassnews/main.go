// Command nassnews — консольный клиент бэкенда NassNews: лента городских
// новостей и событий, вход/регистрация, админ-операции двух уровней.
// Роль слоя представлений из веб-клиента здесь играют подкоманды;
// перед каждой защищённой подкомандой срабатывает guard.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nassnews/nassnews-client/internal/api"
	"github.com/nassnews/nassnews-client/internal/config"
	"github.com/nassnews/nassnews-client/internal/guard"
	"github.com/nassnews/nassnews-client/internal/kv"
	"github.com/nassnews/nassnews-client/internal/mapper"
	"github.com/nassnews/nassnews-client/internal/models"
	"github.com/nassnews/nassnews-client/internal/pkg/log"
	"github.com/nassnews/nassnews-client/internal/session"
	"github.com/nassnews/nassnews-client/internal/store"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type app struct {
	sess   *session.Store
	cities *store.CityStore
	news   *store.NewsStore
	events *store.EventStore
	users  *store.UserStore
	sel    *store.Selection
	guard  *guard.Guard
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	logger := setupLogger(cfg.Env)
	slog.SetDefault(logger)

	storage, err := kv.NewFileStore(cfg.State.File())
	if err != nil {
		logger.Error("state_open_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	client := api.New(cfg.API.BaseURL, cfg.API.BasePath, cfg.API.Timeout)

	sess := session.New(client, storage)
	client.SetTokenSource(sess.Token)
	sess.CheckAuth()

	cities := store.NewCityStore(client)

	a := &app{
		sess:   sess,
		cities: cities,
		news:   store.NewNewsStore(client),
		events: store.NewEventStore(client, nil),
		users:  store.NewUserStore(client),
		sel:    store.NewSelection(cities, storage),
		guard:  guard.New(sess, storage),
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cmd := args[0]
	verb := ""
	if len(args) > 1 {
		verb = args[1]
	}

	if decision := a.guard.Check(cmd, requirementsFor(cmd, verb)); !decision.Allowed {
		fmt.Fprintf(os.Stderr, "access denied: run `nassnews %s` first (requested: %s)\n",
			decision.RedirectTo, decision.ReturnTo)
		os.Exit(1)
	}

	ctx := log.Into(context.Background(), logger)

	if err := a.run(ctx, cmd, args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// requirementsFor — маршрутная таблица: требования доступа по подкоманде.
// Мутации новостей и событий доступны администратору города,
// управление пользователями — администратору системы.
func requirementsFor(cmd, verb string) guard.Requirements {
	switch cmd {
	case "whoami", "logout", "use-city", "favorites":
		return guard.Requirements{RequiresAuth: true}
	case "users":
		return guard.Requirements{RequiresAuth: true, RequiresRole: models.RoleSystemAdmin}
	case "news", "events":
		switch verb {
		case "create", "update", "delete":
			return guard.Requirements{RequiresAuth: true, RequiresRole: models.RoleCommunalAdmin}
		}
		return guard.Requirements{}
	default:
		return guard.Requirements{}
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, args)
	case "register":
		return a.cmdRegister(ctx, args)
	case "logout":
		a.sess.Logout()
		fmt.Println("logged out")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "cities":
		return a.cmdCities(ctx)
	case "detect-city":
		return a.cmdDetectCity(ctx, args)
	case "use-city":
		return a.cmdUseCity(ctx, args)
	case "news":
		return a.cmdNews(ctx, args)
	case "events":
		return a.cmdEvents(ctx, args)
	case "users":
		return a.cmdUsers(ctx, args)
	case "favorites":
		return a.cmdFavorites(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	ok := a.sess.Login(ctx, models.LoginRequest{Email: *email, Password: *password})
	if !ok {
		return errors.New(a.sess.Err())
	}

	user := a.sess.CurrentUser()
	fmt.Printf("logged in as %s (%s)\n", user.Username, user.Role)

	if exp := a.sess.TokenExpiresAt(); !exp.IsZero() {
		fmt.Printf("token valid until %s\n", exp.Format(time.RFC3339))
	}

	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "user name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	role := fs.String("role", string(models.RoleCitizen), "account role")
	cityID := fs.String("city", "", "home city id")
	_ = fs.Parse(args)

	resp, err := a.sess.Register(ctx, models.RegisterRequest{
		Username: *username,
		Email:    *email,
		Password: *password,
		Role:     models.NormalizeRole(*role),
		CityID:   *cityID,
	})
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

func (a *app) cmdWhoami() error {
	user := a.sess.CurrentUser()
	if user == nil {
		return errors.New("not logged in")
	}

	printJSON(user)

	if exp := a.sess.TokenExpiresAt(); !exp.IsZero() {
		fmt.Printf("token valid until %s\n", exp.Format(time.RFC3339))
	}

	return nil
}

func (a *app) cmdCities(ctx context.Context) error {
	a.cities.FetchAll(ctx)
	if msg := a.cities.Err(); msg != "" {
		return errors.New(msg)
	}

	a.sel.Reconcile()
	a.sel.LoadSaved()

	for _, city := range a.cities.Items() {
		marker := " "
		if city.ID == a.sel.CurrentID() {
			marker = "*"
		}
		fmt.Printf("%s %s\t%s (%s)\n", marker, city.ID, city.Name, city.Region)
	}

	return nil
}

func (a *app) cmdDetectCity(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("detect-city", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	_ = fs.Parse(args)

	city := a.cities.DetectCity(ctx, *lat, *lon)
	if city == nil {
		return errors.New(a.cities.Err())
	}

	a.sel.SetCurrent(city.ID)
	fmt.Printf("detected %s (%s), set as current city\n", city.Name, city.ID)

	return nil
}

func (a *app) cmdUseCity(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: nassnews use-city <city-id>")
	}

	a.cities.FetchAll(ctx)
	if msg := a.cities.Err(); msg != "" {
		return errors.New(msg)
	}

	id := args[0]
	if _, ok := a.cities.ByID(id); !ok {
		return fmt.Errorf("unknown city %q", id)
	}

	a.sel.SetCurrent(id)
	fmt.Println("current city:", id)

	return nil
}

func (a *app) cmdNews(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "create":
			return a.cmdNewsCreate(ctx, args[1:])
		case "update":
			return a.cmdNewsUpdate(ctx, args[1:])
		case "delete":
			return a.cmdNewsDelete(ctx, args[1:])
		}
	}

	fs := flag.NewFlagSet("news", flag.ExitOnError)
	cityID := fs.String("city", "", "filter by city id (default: current city)")
	today := fs.Bool("today", false, "only news published today")
	_ = fs.Parse(args)

	a.fetchNews(ctx, *cityID)
	if msg := a.news.Err(); msg != "" {
		return errors.New(msg)
	}

	items := a.news.Items()
	if *today {
		items = a.news.TodaysNews(time.Now())
	}

	for _, item := range items {
		fmt.Printf("%s\t%s\n\t%s\n", item.ID, item.Title, item.Summary)
	}

	return nil
}

// currentCityID восстанавливает сохранённый выбор города. Каждый запуск —
// новый процесс с пустой коллекцией городов, поэтому коллекция загружается
// здесь же: без неё восстановленный идентификатор не пройдёт сверку
// и выбор останется пустым.
func (a *app) currentCityID(ctx context.Context) string {
	a.cities.FetchAll(ctx)
	a.sel.LoadSaved()
	return a.sel.CurrentID()
}

// fetchNews выбирает ленту: явный город, текущий выбор или всё подряд.
func (a *app) fetchNews(ctx context.Context, cityID string) {
	if cityID == "" {
		cityID = a.currentCityID(ctx)
	}

	if cityID != "" {
		a.news.FetchByCity(ctx, cityID)
		return
	}

	a.news.FetchAll(ctx)
}

func (a *app) cmdNewsCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("news create", flag.ExitOnError)
	input := newsInputFlags(fs)
	_ = fs.Parse(args)

	// Новость всегда принадлежит городу: без явного -city берётся
	// текущий выбор, без выбора запрос не уходит.
	if input.CityID == "" {
		input.CityID = a.currentCityID(ctx)
	}
	if input.CityID == "" {
		return errors.New("no city selected: pass -city or run `nassnews use-city`")
	}

	created, err := a.news.Create(ctx, *input)
	if err != nil {
		return err
	}

	printJSON(created)
	return nil
}

func (a *app) cmdNewsUpdate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: nassnews news update <id> [flags]")
	}

	fs := flag.NewFlagSet("news update", flag.ExitOnError)
	input := newsInputFlags(fs)
	_ = fs.Parse(args[1:])

	updated, err := a.news.Update(ctx, args[0], *input)
	if err != nil {
		return err
	}

	printJSON(updated)
	return nil
}

func (a *app) cmdNewsDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: nassnews news delete <id>")
	}

	return a.news.Delete(ctx, args[0])
}

func newsInputFlags(fs *flag.FlagSet) *mapper.NewsInput {
	input := &mapper.NewsInput{}
	fs.StringVar(&input.Title, "title", "", "news title")
	fs.StringVar(&input.Content, "content", "", "full content")
	fs.StringVar(&input.PublishedAt, "date", "", "publication date (ISO)")
	fs.StringVar(&input.CityID, "city", "", "owning city id")
	fs.StringVar(&input.ImageURL, "image", "", "image url")
	fs.StringVar(&input.Author, "author", "", "author / source")
	fs.StringVar(&input.Category, "category", "", "category")
	return input
}

func (a *app) cmdEvents(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "create":
			return a.cmdEventsCreate(ctx, args[1:])
		case "update":
			return a.cmdEventsUpdate(ctx, args[1:])
		case "delete":
			return a.cmdEventsDelete(ctx, args[1:])
		}
	}

	fs := flag.NewFlagSet("events", flag.ExitOnError)
	cityID := fs.String("city", "", "filter by city id (default: current city)")
	upcoming := fs.Bool("upcoming", false, "only upcoming events")
	_ = fs.Parse(args)

	id := *cityID
	if id == "" {
		id = a.currentCityID(ctx)
	}
	if id == "" {
		return errors.New("no city selected: pass -city or run `nassnews use-city`")
	}

	a.events.FetchByCity(ctx, id)
	if msg := a.events.Err(); msg != "" {
		return errors.New(msg)
	}

	items := a.events.Items()
	if *upcoming {
		items = a.events.Upcoming()
	}

	for _, item := range items {
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", item.ID, item.Date, item.Status, item.Title, item.Location)
	}

	return nil
}

func (a *app) cmdEventsCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events create", flag.ExitOnError)
	input := eventInputFlags(fs)
	_ = fs.Parse(args)

	if input.CityID == "" {
		input.CityID = a.currentCityID(ctx)
	}
	if input.CityID == "" {
		return errors.New("no city selected: pass -city or run `nassnews use-city`")
	}

	created, err := a.events.Create(ctx, *input)
	if err != nil {
		return err
	}

	printJSON(created)
	return nil
}

func (a *app) cmdEventsUpdate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: nassnews events update <id> [flags]")
	}

	fs := flag.NewFlagSet("events update", flag.ExitOnError)
	input := eventInputFlags(fs)
	_ = fs.Parse(args[1:])

	updated, err := a.events.Update(ctx, args[0], *input)
	if err != nil {
		return err
	}

	printJSON(updated)
	return nil
}

func (a *app) cmdEventsDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: nassnews events delete <id>")
	}

	return a.events.Delete(ctx, args[0])
}

func eventInputFlags(fs *flag.FlagSet) *mapper.EventInput {
	input := &mapper.EventInput{}
	fs.StringVar(&input.Title, "title", "", "event title")
	fs.StringVar(&input.Description, "description", "", "description")
	fs.StringVar(&input.Location, "location", "", "location")
	fs.StringVar(&input.Date, "date", "", "event date (ISO)")
	fs.StringVar(&input.Type, "type", "", "event type")
	fs.StringVar(&input.CityID, "city", "", "owning city id")
	return input
}

func (a *app) cmdUsers(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "activate", "suspend", "delete":
			if len(args) < 2 {
				return fmt.Errorf("usage: nassnews users %s <id>", args[0])
			}
		}

		switch args[0] {
		case "activate":
			_, err := a.users.Activate(ctx, args[1])
			return err
		case "suspend":
			_, err := a.users.Suspend(ctx, args[1])
			return err
		case "delete":
			return a.users.Delete(ctx, args[1])
		}
	}

	a.users.FetchAll(ctx)
	if msg := a.users.Err(); msg != "" {
		return errors.New(msg)
	}

	for _, u := range a.users.Items() {
		status := "active"
		if !u.Active {
			status = "suspended"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role, status)
	}

	return nil
}

func (a *app) cmdFavorites(ctx context.Context, args []string) error {
	user := a.sess.CurrentUser()
	if user == nil {
		return errors.New("not logged in")
	}

	if len(args) >= 2 {
		switch args[0] {
		case "add":
			if !a.news.AddFavorite(ctx, user.ID, args[1]) {
				return errors.New("failed to add favorite")
			}
			return nil
		case "remove":
			if !a.news.RemoveFavorite(ctx, user.ID, args[1]) {
				return errors.New("failed to remove favorite")
			}
			return nil
		}
	}

	for _, id := range a.news.Favorites(ctx, user.ID) {
		fmt.Println(id)
	}

	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: nassnews [--config path] <command>

commands:
  login -email -password        sign in
  register [flags]              create an account
  logout                        sign out
  whoami                        show current identity
  cities                        list cities ("*" marks the current one)
  use-city <id>                 select the current city
  detect-city -lat -lon         detect the city from coordinates
  news [flags|create|update|delete]
  events [flags|create|update|delete]
  users [activate|suspend|delete]
  favorites [add|remove] [news-id]`)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
