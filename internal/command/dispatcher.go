package command

import (
	"TradeTechCircuit/internal/model"
	"TradeTechCircuit/internal/service"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Trader is the trading capability the dispatcher routes verbs to
type Trader interface {
	PlaceMarketOrder(ctx context.Context, side, quantity string) (model.OrderResponse, error)
	PlaceLimitOrder(ctx context.Context, side, quantity, price string) (model.OrderResponse, error)
	PlaceStopLimitOrder(ctx context.Context, side, quantity, stopPrice, limitPrice string) (model.OrderResponse, error)
	GetOrderStatus(ctx context.Context, orderID int64) (model.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID int64) error
	GetBalances(ctx context.Context) ([]model.Balance, error)
	Describe(order model.OrderResponse) model.OrderRecord
}

// ActivityReader exposes the newest activity log entries
type ActivityReader interface {
	Recent(n int) []model.LogEntry
}

// Result is the reply to one chat command
type Result struct {
	Response string `json:"response"`
	Command  string `json:"command"`
}

// Dispatcher turns free text into exactly one action. It keeps no state between calls.
type Dispatcher struct {
	trader    Trader
	activity  ActivityReader
	verbs     map[string]verb
	aliases   map[string]string
	names     []string
	threshold float64
	logger    *slog.Logger
}

// NewDispatcher builds the verb table once
func NewDispatcher(trader Trader, activity ActivityReader, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		trader:    trader,
		activity:  activity,
		verbs:     make(map[string]verb),
		aliases:   make(map[string]string),
		threshold: DefaultSimilarityThreshold,
		logger:    logger,
	}

	for _, v := range vocabulary() {
		d.verbs[v.name] = v
		d.names = append(d.names, v.name)
		for _, alias := range v.aliases {
			d.aliases[alias] = v.name
		}
	}
	sort.Strings(d.names)

	return d
}

// Verbs returns the recognized verb names in sorted order
func (d *Dispatcher) Verbs() []string {
	names := make([]string, len(d.names))
	copy(names, d.names)
	return names
}

// Dispatch parses input and runs the matching action
func (d *Dispatcher) Dispatch(ctx context.Context, input string) (result Result) {
	echoed := strings.TrimSpace(input)
	result.Command = echoed

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command dispatch panicked", "command", echoed, "panic", r)
			result.Response = unexpectedMessage
		}
	}()

	tokens := tokenize(echoed)
	if len(tokens) == 0 {
		result.Response = emptyInputMessage
		return result
	}

	v, args, ok := d.resolve(tokens)
	if !ok {
		d.logger.Debug("command not recognized", "command", echoed, "error", model.ErrCommandUnrecognized)
		result.Response = unrecognizedMessage
		return result
	}

	if len(args) < v.minArgs {
		result.Response = v.usage
		return result
	}

	if v.handle == nil {
		result.Response = v.text
		return result
	}

	response, err := v.handle(d, ctx, args)
	if err != nil {
		result.Response = d.describeError(v.name, echoed, err)
		return result
	}

	result.Response = response
	return result
}

// tokenize lower-cases input and splits it on whitespace, ignoring trailing ? and !
func tokenize(input string) []string {
	cleaned := strings.TrimRight(strings.ToLower(strings.TrimSpace(input)), "?!")
	return strings.Fields(cleaned)
}

// resolve finds the verb for tokens and returns the remaining arguments.
// Multi-word verbs are tried first as one joined entry, then the first token is
// fuzzy matched, then the whole input is fuzzy matched as a multi-word verb.
func (d *Dispatcher) resolve(tokens []string) (verb, []string, bool) {
	for k := len(tokens); k >= 1; k-- {
		if v, ok := d.lookup(strings.Join(tokens[:k], "_")); ok {
			return v, tokens[k:], true
		}
	}

	if name, ok := nearest(tokens[0], d.names, d.threshold); ok {
		d.logger.Debug("resolved near-miss verb", "input", tokens[0], "verb", name)
		return d.verbs[name], tokens[1:], true
	}

	if len(tokens) > 1 {
		joined := strings.Join(tokens, "_")
		if name, ok := nearest(joined, d.names, d.threshold); ok {
			d.logger.Debug("resolved near-miss verb", "input", joined, "verb", name)
			return d.verbs[name], nil, true
		}
	}

	return verb{}, nil, false
}

func (d *Dispatcher) lookup(key string) (verb, bool) {
	if v, ok := d.verbs[key]; ok {
		return v, true
	}
	if name, ok := d.aliases[key]; ok {
		return d.verbs[name], true
	}
	return verb{}, false
}

// describeError resolves a failed action into the text shown to the operator
func (d *Dispatcher) describeError(verbName, command string, err error) string {
	var exchangeErr *model.ExchangeError
	switch model.KindOf(err) {
	case model.KindInvalidInput:
		return "Invalid input: " + err.Error()
	case model.KindExchangeRejected:
		errors.As(err, &exchangeErr)
		return fmt.Sprintf("The exchange rejected the request (code %d): %s", exchangeErr.Code, exchangeErr.Message)
	default:
		d.logger.Error("command failed", "verb", verbName, "command", command, "error", err)
		return unexpectedMessage
	}
}

func (d *Dispatcher) marketBuy(ctx context.Context, args []string) (string, error) {
	return d.market(ctx, string(model.SideBuy), args[0])
}

func (d *Dispatcher) marketSell(ctx context.Context, args []string) (string, error) {
	return d.market(ctx, string(model.SideSell), args[0])
}

func (d *Dispatcher) market(ctx context.Context, side, quantity string) (string, error) {
	order, err := d.trader.PlaceMarketOrder(ctx, side, quantity)
	if err != nil {
		return "", err
	}
	return formatRecord("Market order placed!", d.trader.Describe(order)), nil
}

// limit expects: <side> <quantity> <price>
func (d *Dispatcher) limit(ctx context.Context, args []string) (string, error) {
	order, err := d.trader.PlaceLimitOrder(ctx, strings.ToUpper(args[0]), args[1], args[2])
	if err != nil {
		return "", err
	}
	return formatRecord("Limit order placed!", d.trader.Describe(order)), nil
}

// stopLimit expects: <side> <quantity> <stop_price> <limit_price>
func (d *Dispatcher) stopLimit(ctx context.Context, args []string) (string, error) {
	order, err := d.trader.PlaceStopLimitOrder(ctx, strings.ToUpper(args[0]), args[1], args[2], args[3])
	if err != nil {
		return "", err
	}
	return formatRecord("Stop-limit order placed!", d.trader.Describe(order)), nil
}

func (d *Dispatcher) status(ctx context.Context, args []string) (string, error) {
	orderID, err := service.ParseOrderID(args[0])
	if err != nil {
		return "", err
	}

	order, err := d.trader.GetOrderStatus(ctx, orderID)
	if err != nil {
		return "", err
	}
	return formatRecord("Order status:", d.trader.Describe(order)), nil
}

func (d *Dispatcher) cancel(ctx context.Context, args []string) (string, error) {
	orderID, err := service.ParseOrderID(args[0])
	if err != nil {
		return "", err
	}

	if err := d.trader.CancelOrder(ctx, orderID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Order %d cancelled.", orderID), nil
}

func (d *Dispatcher) balance(ctx context.Context, _ []string) (string, error) {
	balances, err := d.trader.GetBalances(ctx)
	if err != nil {
		return "", err
	}

	if len(balances) == 0 {
		return "No balances found.", nil
	}

	var sb strings.Builder
	sb.WriteString("Account balances:")
	for _, b := range balances {
		fmt.Fprintf(&sb, "\n- %s: wallet %s, available %s", b.Asset, b.WalletBalance, b.AvailableBalance)
	}
	return sb.String(), nil
}

func (d *Dispatcher) liveLog(_ context.Context, _ []string) (string, error) {
	entries := d.activity.Recent(liveLogSize)
	if len(entries) == 0 {
		return noActivityMessage, nil
	}

	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = "- " + entry.String()
	}
	return strings.Join(lines, "\n"), nil
}

func formatRecord(title string, record model.OrderRecord) string {
	var sb strings.Builder
	sb.WriteString(title)
	fmt.Fprintf(&sb, "\nOrder ID: %s", record.OrderID)
	fmt.Fprintf(&sb, "\nSymbol: %s", record.Symbol)
	fmt.Fprintf(&sb, "\nSide: %s", record.Side)
	fmt.Fprintf(&sb, "\nType: %s", record.Type)
	fmt.Fprintf(&sb, "\nQuantity: %s", record.Quantity)
	fmt.Fprintf(&sb, "\nStatus: %s", record.Status)
	fmt.Fprintf(&sb, "\nTime: %s", record.Time)
	if record.Price != "" {
		fmt.Fprintf(&sb, "\nPrice: %s", record.Price)
	}
	if record.StopPrice != "" {
		fmt.Fprintf(&sb, "\nStop Price: %s", record.StopPrice)
	}
	return sb.String()
}
