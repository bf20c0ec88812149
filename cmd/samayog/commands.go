package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"samayog/models"
	"samayog/services/booking"
)

var errUsage = errors.New("usage")

func printHelp(w io.Writer) {
	fmt.Fprint(w, `samayog - session and booking client

Usage:
  samayog otp-send <phone>
  samayog login <phone> <code>
  samayog signup --name NAME --phone PHONE [--email E] [--password P] [--city C]
  samayog logout
  samayog status
  samayog refresh
  samayog quote <mode> <minutes>
  samayog book --professional ID --service S --mode M --minutes N --at RFC3339
  samayog payment <booking-id> [--wait] [--interval 3s]
  samayog bookings [--professional ID]
  samayog booking <booking-id>
  samayog cancel <booking-id>
  samayog view <kind> <id>
  samayog doctor <phone>
`)
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	var err error
	switch cmd {
	case "otp-send":
		err = a.cmdSendOTP(ctx, args)
	case "login":
		err = a.cmdLogin(ctx, args)
	case "signup":
		err = a.cmdSignup(ctx, args)
	case "logout":
		err = a.flow.Logout(ctx)
		if err == nil {
			fmt.Fprintln(a.out, "Logged out")
		}
	case "status":
		a.warmUp(ctx)
		err = a.print(a.flow.CheckAuthStatus(ctx))
	case "refresh":
		err = a.cmdRefresh(ctx)
	case "quote":
		err = a.cmdQuote(args)
	case "book":
		err = a.cmdBook(ctx, args)
	case "payment":
		err = a.cmdPayment(ctx, args)
	case "bookings":
		err = a.cmdBookings(ctx, args)
	case "booking":
		err = a.withID(args, func(id string) error {
			b, err := a.orch.GetBookingDetails(ctx, id)
			if err != nil {
				return err
			}
			return a.print(b)
		})
	case "cancel":
		err = a.withID(args, func(id string) error {
			res, err := a.orch.CancelBooking(ctx, id)
			if err != nil {
				return err
			}
			return a.print(res)
		})
	case "view":
		if len(args) != 2 {
			return fmt.Errorf("%w: samayog view <kind> <id>", errUsage)
		}
		a.tracker.TrackView(args[0], args[1])
	case "doctor":
		err = a.cmdDoctor(ctx, args)
	default:
		printHelp(a.out)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return err
}

func (a *app) cmdSendOTP(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: samayog otp-send <phone>", errUsage)
	}
	res, err := a.flow.SendOTP(ctx, args[0])
	if err != nil {
		return err
	}
	return a.print(res)
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: samayog login <phone> <code>", errUsage)
	}
	res, err := a.flow.VerifyOTP(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("login rejected: %s", res.Message)
	}
	return a.print(res.User)
}

func (a *app) cmdSignup(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("signup", pflag.ContinueOnError)
	fs.SetOutput(a.out)
	var p models.SignupProfile
	fs.StringVar(&p.Name, "name", "", "display name")
	fs.StringVar(&p.Phone, "phone", "", "10-digit phone number")
	fs.StringVar(&p.Email, "email", "", "email address")
	fs.StringVar(&p.Password, "password", "", "account password")
	fs.StringVar(&p.City, "city", "", "city")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := a.flow.Signup(ctx, p)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("signup rejected: %s", res.Message)
	}
	return a.print(res.User)
}

func (a *app) cmdRefresh(ctx context.Context) error {
	res, err := a.flow.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("refresh rejected: %s", res.Message)
	}
	fmt.Fprintln(a.out, "Token refreshed")
	return nil
}

func (a *app) cmdQuote(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: samayog quote <mode> <minutes>", errUsage)
	}
	mode := models.ConsultationMode(args[0])
	if !mode.Valid() {
		return fmt.Errorf("unknown consultation mode %q", args[0])
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("minutes: %w", err)
	}
	return a.print(booking.Quote("", mode, minutes))
}

func (a *app) cmdBook(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("book", pflag.ContinueOnError)
	fs.SetOutput(a.out)
	professional := fs.String("professional", "", "professional id")
	service := fs.String("service", "", "service name")
	mode := fs.String("mode", string(models.ModeVideo), "chat, audio, video or in-person")
	minutes := fs.Int("minutes", 60, "duration in minutes")
	at := fs.String("at", "", "start time, RFC3339")
	if err := fs.Parse(args); err != nil {
		return err
	}
	when, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return fmt.Errorf("--at: %w", err)
	}

	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	req := models.BookingRequest{
		ProfessionalID:   *professional,
		UserID:           user.ID,
		Service:          *service,
		ConsultationMode: models.ConsultationMode(*mode),
		DateTime:         when,
		DurationMinutes:  *minutes,
	}
	req.Amount = a.orch.Quote(req).Amount

	res, err := a.orch.CreateBooking(ctx, req)
	if err != nil {
		return err
	}
	return a.print(res)
}

func (a *app) cmdPayment(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("payment", pflag.ContinueOnError)
	fs.SetOutput(a.out)
	wait := fs.Bool("wait", false, "poll until the payment leaves pending")
	interval := fs.Duration("interval", booking.DefaultPollInterval, "poll interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.withID(fs.Args(), func(id string) error {
		var (
			res *models.PaymentStatusResponse
			err error
		)
		if *wait {
			res, err = a.orch.WaitForPayment(ctx, id, *interval)
		} else {
			res, err = a.orch.GetPaymentStatus(ctx, id)
		}
		if err != nil {
			return err
		}
		return a.print(res)
	})
}

func (a *app) cmdBookings(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("bookings", pflag.ContinueOnError)
	fs.SetOutput(a.out)
	professional := fs.String("professional", "", "list a professional's bookings instead of yours")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter := booking.ListFilter{ProfessionalID: *professional}
	if filter.ProfessionalID == "" {
		user, err := a.requireUser(ctx)
		if err != nil {
			return err
		}
		filter.UserID = user.ID
	}
	list, err := a.orch.ListBookings(ctx, filter)
	if err != nil {
		return err
	}
	return a.print(list)
}

func (a *app) cmdDoctor(ctx context.Context, args []string) error {
	phone := ""
	if len(args) > 0 {
		phone = args[0]
	}
	return a.print(a.flow.Diagnose(ctx, phone))
}

// requireUser warms up the client and returns the signed-in user.
func (a *app) requireUser(ctx context.Context) (*models.UserProfile, error) {
	a.warmUp(ctx)
	status := a.flow.CheckAuthStatus(ctx)
	if !status.Authenticated || status.User == nil {
		return nil, errors.New("not logged in: run samayog otp-send and samayog login first")
	}
	return status.User, nil
}

func (a *app) withID(args []string, fn func(id string) error) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("%w: a booking id is required", errUsage)
	}
	return fn(args[0])
}
