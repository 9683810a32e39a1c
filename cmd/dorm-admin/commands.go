package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"dorm-admin/internal/domain"
	"dorm-admin/internal/report"
	"dorm-admin/internal/service"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	errUsage    = errors.New("usage")
	errNotFound = errors.New("not found")
	errDrift    = errors.New("consistency check found drift")
)

type app struct {
	occupancy    service.OccupancyService
	auth         service.AuthService
	logger       *zap.Logger
	in           io.Reader
	reader       *bufio.Reader
	out          io.Writer
	errOut       io.Writer
	passwordFile string
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"seed", "seed", "write the sample data if no rooms exist", runSeed},
	{"dashboard", "dashboard", "show room and resident totals", runDashboard},
	{"rooms", "rooms [--search text] [--available]", "list rooms", runRooms},
	{"room", "room <id>", "show a room and its residents", runRoom},
	{"available-rooms", "available-rooms", "list rooms flagged available", runAvailableRooms},
	{"rooms-with-space", "rooms-with-space", "list rooms that can take another resident", runRoomsWithSpace},
	{"add-room", "add-room --number --building --floor --type --capacity", "add a room", runAddRoom},
	{"residents", "residents [--room id]", "list residents", runResidents},
	{"resident", "resident <id>", "show a resident", runResident},
	{"add-resident", "add-resident --name --email [--phone] --room", "assign a new resident to a room", runAddResident},
	{"buildings", "buildings", "list buildings", runBuildings},
	{"building", "building <id>", "show a building", runBuilding},
	{"add-building", "add-building --name", "add a building", runAddBuilding},
	{"check", "check", "compare cached counters with the live data", runCheck},
	{"export", "export --out file.xlsx", "write an occupancy report workbook", runExport},
	{"register", "register --name --email", "create an admin account and log in", runRegister},
	{"login", "login --email", "log in", runLogin},
	{"logout", "logout", "end the current session", runLogout},
	{"whoami", "whoami", "show the logged-in user", runWhoami},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// parse parses args for a subcommand and returns the positional args.
func (a *app) parse(name string, args []string, define func(fs *pflag.FlagSet)) ([]string, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	if define != nil {
		define(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	return fs.Args(), nil
}

func (a *app) oneID(name string, args []string) (string, error) {
	rest, err := a.parse(name, args, nil)
	if err != nil {
		return "", err
	}
	if len(rest) != 1 {
		return "", fmt.Errorf("%w: dorm-admin %s <id>", errUsage, name)
	}
	return rest[0], nil
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

// ============================================
// 数据命令
// ============================================

func runSeed(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse("seed", args, nil); err != nil {
		return err
	}
	seeded, err := a.occupancy.InitializeIfEmpty(ctx)
	if err != nil {
		return err
	}
	if seeded {
		fmt.Fprintln(a.out, "Seeded sample rooms, residents and buildings.")
	} else {
		fmt.Fprintln(a.out, "Rooms already present; nothing seeded.")
	}
	return nil
}

func runDashboard(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse("dashboard", args, nil); err != nil {
		return err
	}
	s, err := a.occupancy.Dashboard(ctx)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintf(tw, "Total Rooms\t%d\n", s.TotalRooms)
	fmt.Fprintf(tw, "Available Rooms\t%d\n", s.AvailableRooms)
	fmt.Fprintf(tw, "Total Residents\t%d\n", s.TotalResidents)
	fmt.Fprintf(tw, "Occupancy\t%d%%\n", s.OccupancyPercentage)
	return tw.Flush()
}

func runRooms(ctx context.Context, a *app, args []string) error {
	var filter service.RoomFilter
	if _, err := a.parse("rooms", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&filter.Search, "search", "", "match room number or building name")
		fs.BoolVar(&filter.AvailableOnly, "available", false, "only rooms flagged available")
	}); err != nil {
		return err
	}
	rooms, err := a.occupancy.SearchRooms(ctx, filter)
	if err != nil {
		return err
	}
	return a.printRooms(rooms)
}

func runRoom(ctx context.Context, a *app, args []string) error {
	id, err := a.oneID("room", args)
	if err != nil {
		return err
	}
	details, ok, err := a.occupancy.RoomDetails(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: room %s", errNotFound, id)
	}
	r := details.Room
	tw := a.table()
	fmt.Fprintf(tw, "ID\t%s\n", r.ID)
	fmt.Fprintf(tw, "Number\t%s\n", r.Number)
	fmt.Fprintf(tw, "Building\t%s\n", r.Building)
	fmt.Fprintf(tw, "Floor\t%d\n", r.Floor)
	fmt.Fprintf(tw, "Type\t%s\n", r.Type)
	fmt.Fprintf(tw, "Occupancy\t%d/%d\n", len(details.Residents), r.Capacity)
	fmt.Fprintf(tw, "Available\t%s\n", yesNo(r.Available))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out)
	return a.printResidents(details.Residents)
}

func runAvailableRooms(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse("available-rooms", args, nil); err != nil {
		return err
	}
	rooms, err := a.occupancy.ListAvailableRooms(ctx)
	if err != nil {
		return err
	}
	return a.printRooms(rooms)
}

func runRoomsWithSpace(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse("rooms-with-space", args, nil); err != nil {
		return err
	}
	rooms, err := a.occupancy.ListRoomsWithSpace(ctx)
	if err != nil {
		return err
	}
	return a.printRooms(rooms)
}

func runAddRoom(ctx context.Context, a *app, args []string) error {
	var req service.AddRoomRequest
	if _, err := a.parse("add-room", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&req.Number, "number", "", "room number")
		fs.StringVar(&req.Building, "building", "", "building name")
		fs.IntVar(&req.Floor, "floor", 1, "floor")
		fs.StringVar(&req.Type, "type", "", "Single, Double, Triple or Quad")
		fs.IntVar(&req.Capacity, "capacity", 0, "beds (default: the type's usual count)")
	}); err != nil {
		return err
	}
	if req.Capacity == 0 {
		if t, ok := domain.ParseRoomType(req.Type); ok {
			req.Capacity = t.DefaultCapacity()
		}
	}
	room, err := a.occupancy.AddRoom(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added room %s in %s (id %s)\n", room.Number, room.Building, room.ID)
	return nil
}

func runResidents(ctx context.Context, a *app, args []string) error {
	var roomID string
	if _, err := a.parse("residents", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&roomID, "room", "", "only residents of this room id")
	}); err != nil {
		return err
	}
	var (
		residents []domain.Resident
		err       error
	)
	if roomID != "" {
		residents, err = a.occupancy.ListResidentsByRoom(ctx, roomID)
	} else {
		residents, err = a.occupancy.ListResidents(ctx)
	}
	if err != nil {
		return err
	}
	return a.printResidents(residents)
}

func runResident(ctx context.Context, a *app, args []string) error {
	id, err := a.oneID("resident", args)
	if err != nil {
		return err
	}
	r, ok, err := a.occupancy.GetResidentByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: resident %s", errNotFound, id)
	}
	return a.printResidents([]domain.Resident{r})
}

func runAddResident(ctx context.Context, a *app, args []string) error {
	var req service.AddResidentRequest
	if _, err := a.parse("add-resident", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&req.Name, "name", "", "full name")
		fs.StringVar(&req.Email, "email", "", "email, unique across residents")
		fs.StringVar(&req.Phone, "phone", "", "phone (optional)")
		fs.StringVar(&req.RoomID, "room", "", "room id")
	}); err != nil {
		return err
	}
	r, err := a.occupancy.AddResident(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added resident %s to room %s (id %s)\n", r.Name, r.RoomID, r.ID)
	return nil
}

func runBuildings(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse("buildings", args, nil); err != nil {
		return err
	}
	buildings, err := a.occupancy.ListBuildings(ctx)
	if err != nil {
		return err
	}
	return a.printBuildings(buildings)
}

func runBuilding(ctx context.Context, a *app, args []string) error {
	id, err := a.oneID("building", args)
	if err != nil {
		return err
	}
	b, ok, err := a.occupancy.GetBuildingByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: building %s", errNotFound, id)
	}
	return a.printBuildings([]domain.Building{b})
}

func runAddBuilding(ctx context.Context, a *app, args []string) error {
	var req service.AddBuildingRequest
	if _, err := a.parse("add-building", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&req.Name, "name", "", "building name, unique")
	}); err != nil {
		return err
	}
	b, err := a.occupancy.AddBuilding(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added building %s (id %s)\n", b.Name, b.ID)
	return nil
}

// runCheck prints drift and fails when any is found. It never repairs.
func runCheck(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse("check", args, nil); err != nil {
		return err
	}
	rep, err := a.occupancy.CheckConsistency(ctx)
	if err != nil {
		return err
	}
	if rep.Clean() {
		fmt.Fprintln(a.out, "No drift found.")
		return nil
	}

	tw := a.table()
	for _, d := range rep.Rooms {
		fmt.Fprintf(tw, "room %s (%s, %s)\toccupancy %d, live %d\tavailable %s, live %s\n",
			d.RoomID, d.Number, d.Building, d.CachedOccupancy, d.LiveOccupancy,
			yesNo(d.CachedAvailable), yesNo(d.LiveAvailable))
	}
	for _, d := range rep.Buildings {
		fmt.Fprintf(tw, "building %s (%s)\ttotalRooms %d, live %d\t\n", d.BuildingID, d.Name, d.CachedTotal, d.LiveTotal)
	}
	for _, name := range rep.UnknownBuildings {
		fmt.Fprintf(tw, "unknown building\t%s\t\n", name)
	}
	for _, id := range rep.DanglingResidents {
		fmt.Fprintf(tw, "resident without room\t%s\t\n", id)
	}
	for _, id := range rep.OverCapacityRooms {
		fmt.Fprintf(tw, "over capacity\troom %s\t\n", id)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return errDrift
}

func runExport(ctx context.Context, a *app, args []string) error {
	var out string
	if _, err := a.parse("export", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&out, "out", "", "output .xlsx path")
	}); err != nil {
		return err
	}
	if out == "" {
		return fmt.Errorf("%w: --out is required", errUsage)
	}

	summary, err := a.occupancy.Dashboard(ctx)
	if err != nil {
		return err
	}
	rooms, err := a.occupancy.ListRoomsWithOccupancy(ctx, false)
	if err != nil {
		return err
	}
	data, err := report.OccupancyWorkbook(summary, rooms)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	a.logger.Info("exported occupancy report", zap.String("path", out), zap.Int("rooms", len(rooms)))
	fmt.Fprintf(a.out, "Wrote %s (%d rooms)\n", out, len(rooms))
	return nil
}

// ============================================
// 账号命令
// ============================================

func runRegister(ctx context.Context, a *app, args []string) error {
	var req service.RegisterRequest
	if _, err := a.parse("register", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&req.Name, "name", "", "display name")
		fs.StringVar(&req.Email, "email", "", "login email")
	}); err != nil {
		return err
	}
	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}
	if _, interactive := a.terminal(); interactive && a.passwordFile == "" {
		confirm, err := a.readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if confirm != password {
			return fmt.Errorf("%w: passwords do not match", service.ErrInvalidField)
		}
	}
	req.Password = password

	user, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered and logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	var email string
	if _, err := a.parse("login", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&email, "email", "", "login email")
	}); err != nil {
		return err
	}
	if email == "" {
		return fmt.Errorf("%w: email", service.ErrMissingRequiredField)
	}
	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}
	user, ok, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if !ok {
		return service.ErrInvalidCredentials
	}
	fmt.Fprintf(a.out, "Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse("logout", args, nil); err != nil {
		return err
	}
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse("whoami", args, nil); err != nil {
		return err
	}
	user, ok, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return service.ErrNotLoggedIn
	}
	fmt.Fprintf(a.out, "%s <%s>\n", user.Name, user.Email)
	return nil
}

// ============================================
// 输出
// ============================================

func (a *app) printRooms(rooms []domain.Room) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNUMBER\tBUILDING\tFLOOR\tTYPE\tOCCUPANCY\tAVAILABLE")
	for _, r := range rooms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d/%d\t%s\n",
			r.ID, r.Number, r.Building, r.Floor, r.Type, r.Occupancy, r.Capacity, yesNo(r.Available))
	}
	return tw.Flush()
}

func (a *app) printResidents(residents []domain.Resident) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tROOM")
	for _, r := range residents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Email, r.Phone, r.RoomID)
	}
	return tw.Flush()
}

func (a *app) printBuildings(buildings []domain.Building) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tROOMS")
	for _, b := range buildings {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", b.ID, b.Name, b.TotalRooms)
	}
	return tw.Flush()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
