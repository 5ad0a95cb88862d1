package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"rifas/internal/client"
	"rifas/internal/models"
	"rifas/internal/numbering"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// parse splits flags from positional arguments, in any order
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %v", client.ErrValidation, err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func requireArgs(args []string, n int, names string) error {
	if len(args) < n {
		return fmt.Errorf("%w: missing %s", client.ErrValidation, names)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("RIFACTL_PASSWORD"), "account password")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("%w: email and password are required", client.ErrValidation)
	}

	token, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	id, err := a.state.Login(token)
	if err != nil {
		return err
	}
	fmt.Printf("Bem-vindo, %s (%s)\n", id.Name, id.Role)
	for _, r := range client.AllowedRoutes(id.Role) {
		fmt.Printf("  %-22s %s\n", r.Path, r.Title)
	}
	return nil
}

func (a *app) raffles(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rifas", flag.ContinueOnError)
	status := fs.String("status", "", "filter by status")
	query := fs.String("q", "", "search text")
	if _, err := parse(fs, args); err != nil {
		return err
	}

	raffles, err := a.client.Raffles(ctx, *status, *query)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTÍTULO\tTIPO\tPREÇO\tSTATUS\tSORTEIO")
	for _, r := range raffles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Titulo, r.TipoRifa, r.PrecoNumero, r.Status, r.DataSorteio.Format("02/01/2006 15:04"))
	}
	return w.Flush()
}

func (a *app) numbers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("numeros", flag.ContinueOnError)
	status := fs.String("status", "", "only numbers with this status")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs(rest, 1, "raffle id"); err != nil {
		return err
	}

	numbers, err := a.client.Catalog(ctx, rest[0])
	if err != nil {
		return err
	}
	printNumbers(numbers, models.NumberStatus(*status))
	return nil
}

func printNumbers(numbers []models.NumberView, filter models.NumberStatus) {
	counts := map[models.NumberStatus]int{}
	var line []string
	for _, n := range numbers {
		counts[n.Status]++
		if filter != "" && n.Status != filter {
			continue
		}
		label := n.Numero
		if n.IsOwner {
			label += "*"
		}
		line = append(line, label)
		if len(line) == 10 {
			fmt.Println(strings.Join(line, " "))
			line = line[:0]
		}
	}
	if len(line) > 0 {
		fmt.Println(strings.Join(line, " "))
	}
	fmt.Printf("livre %d · reservado %d · pago %d\n",
		counts[models.NumberFree]+counts[models.NumberExpired], counts[models.NumberReserved], counts[models.NumberPaid])
}

func (a *app) buy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comprar", flag.ContinueOnError)
	wait := fs.Bool("wait", true, "keep counting down until the reservation expires")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs(rest, 2, "raffle id and number"); err != nil {
		return err
	}
	rifaID, numero := rest[0], rest[1]

	flow := client.NewPurchaseFlow(a.client, a.interval)
	instrument, err := flow.Buy(ctx, rifaID, numero)
	if err != nil {
		return err
	}

	view := flow.View()
	fmt.Println(view.Notice)
	fmt.Printf("Pix copia e cola:\n%s\n", instrument.PixCode)
	fmt.Printf("QR code: %d bytes (base64)\n", len(instrument.QRCode))
	if !*wait {
		return nil
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flow.Cancel()
			fmt.Println("\nAcompanhamento cancelado. A reserva segue ativa até expirar ou ser paga.")
			return nil
		case <-flow.Released():
			fmt.Println()
			fmt.Println(flow.View().Notice)
			printNumbers(flow.View().Numbers, models.NumberFree)
			return nil
		case <-ticker.C:
			fmt.Printf("\rTempo restante: %s   ", flow.Remaining().Round(time.Second))
		}
	}
}

func (a *app) myRaffles(ctx context.Context) error {
	raffles, err := a.client.MyRaffles(ctx)
	if err != nil {
		return err
	}
	for _, r := range raffles {
		fmt.Printf("%s  %s  [%s]\n", r.ID, r.Titulo, r.Status)
		for _, n := range r.NumerosComprados {
			prize := ""
			if n.PremioStatus != "" {
				prize = " " + string(n.PremioStatus)
			}
			fmt.Printf("    %s  %s%s\n", n.Numero, n.Status, prize)
		}
	}
	return nil
}

func (a *app) recordResult(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resultado", flag.ContinueOnError)
	valor := fs.String("valor", "", "drawn value")
	local := fs.String("local", "Loteria Federal", "where the draw happened")
	data := fs.String("data", "", "draw date, 2006-01-02 or RFC 3339 (default now)")
	tipo := fs.String("tipo", "", "raffle type used to clean the value (default: the raffle's)")
	rest, err := parse(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs(rest, 1, "raffle id"); err != nil {
		return err
	}
	rifaID := rest[0]

	when := time.Now()
	if *data != "" {
		when, err = parseDate(*data)
		if err != nil {
			return err
		}
	}

	t := numbering.Tipo(*tipo)
	if *tipo == "" {
		raffle, err := a.client.Raffle(ctx, rifaID)
		if err != nil {
			return err
		}
		t = raffle.TipoRifa
	} else if t, err = numbering.ParseTipo(*tipo); err != nil {
		return fmt.Errorf("%w: %v", client.ErrValidation, err)
	}

	reader := client.NewResultReader(a.client)
	res, err := reader.Submit(ctx, rifaID, client.ResultInput{
		Resultado:     reader.Draft(t, *valor),
		LocalSorteio:  *local,
		DataResultado: when,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Resultado %s lançado para %s\n", res.Resultado, rifaID)
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", client.ErrValidation, s)
	}
	return t, nil
}

func (a *app) apurar(ctx context.Context, args []string) error {
	if err := requireArgs(args, 1, "raffle id"); err != nil {
		return err
	}
	rifaID := args[0]

	reader := client.NewResultReader(a.client)
	if _, err := reader.Load(ctx, rifaID); err != nil {
		return err
	}
	resp, err := reader.Compute(ctx, rifaID)
	if err != nil {
		return err
	}

	fmt.Printf("Rifa %s apurada. Número vencedor: %s, ganhadores: %d\n", resp.RifaID, resp.Vencedor, resp.Ganhadores)
	winners, err := a.client.Winners(ctx, rifaID)
	if err != nil {
		return err
	}
	for _, w := range winners.Ganhadores {
		fmt.Printf("  %s  %s <%s>\n", w.Numero, w.Name, w.Email)
	}
	return nil
}
