package command

import "context"

// handlerFunc executes a trading verb with its already arity-checked arguments
type handlerFunc func(d *Dispatcher, ctx context.Context, args []string) (string, error)

// verb is one entry of the command vocabulary. Exactly one of handle or text is set.
type verb struct {
	name    string
	minArgs int
	usage   string
	aliases []string
	handle  handlerFunc
	text    string
}

const (
	emptyInputMessage   = "Please type a command. Type 'help' to see what I can do."
	unrecognizedMessage = "Sorry, I didn't understand that command. Type 'help' to see the list of available commands."
	noActivityMessage   = "No activity yet. Place an order to see it here."
	unexpectedMessage   = "Something went wrong while processing your command. Please try again or contact support."
	liveLogSize         = 5
)

// vocabulary is the single source of truth for verbs, their arity and their responses.
// Multi-word verbs are keyed with underscores and matched against the joined input.
func vocabulary() []verb {
	return []verb{
		// Trading
		{
			name:    "buy",
			minArgs: 1,
			usage:   "Usage: buy <quantity>  (e.g. buy 0.001)",
			handle:  (*Dispatcher).marketBuy,
		},
		{
			name:    "sell",
			minArgs: 1,
			usage:   "Usage: sell <quantity>  (e.g. sell 0.001)",
			handle:  (*Dispatcher).marketSell,
		},
		{
			name:    "limit",
			minArgs: 3,
			usage:   "Usage: limit <buy|sell> <quantity> <price>  (e.g. limit buy 0.001 30000)",
			handle:  (*Dispatcher).limit,
		},
		{
			name:    "stop_limit",
			minArgs: 4,
			usage:   "Usage: stop_limit <buy|sell> <quantity> <stop_price> <limit_price>  (e.g. stop_limit sell 0.001 29000 28900)",
			handle:  (*Dispatcher).stopLimit,
		},
		{
			name:    "status",
			minArgs: 1,
			usage:   "Usage: status <order_id>  (e.g. status 4000000001)",
			handle:  (*Dispatcher).status,
		},
		{
			name:    "cancel",
			minArgs: 1,
			usage:   "Usage: cancel <order_id>  (e.g. cancel 4000000001)",
			handle:  (*Dispatcher).cancel,
		},
		{
			name:   "balance",
			handle: (*Dispatcher).balance,
		},
		{
			name:    "live_log",
			aliases: []string{"logs", "activity"},
			handle:  (*Dispatcher).liveLog,
		},

		// Informational
		{
			name:    "help",
			aliases: []string{"commands", "menu"},
			text: `Available commands:
- buy <quantity>: market buy
- sell <quantity>: market sell
- limit <buy|sell> <quantity> <price>: GTC limit order
- stop_limit <buy|sell> <quantity> <stop_price> <limit_price>: GTC stop-limit order
- status <order_id>: check an order
- cancel <order_id>: cancel an open order
- balance: show account balances
- live_log: show the latest activity
- about_app, features, how_to_use, supported_markets, trading_tips, faq`,
		},
		{
			name:    "about_app",
			aliases: []string{"about", "what_does_this_app_do"},
			text: `This app is a trading assistant for the Binance USDⓈ-M futures testnet.
It places market, limit and stop-limit orders, checks and cancels them, and keeps a live log of everything it does.
All trades use testnet funds, so you can practise without risking real money.`,
		},
		{
			name: "features",
			text: `Features:
- Market, limit and stop-limit orders from a web form or this chat
- Quantities and prices rounded to the exchange's precision before they are sent
- Order status checks and cancellation
- Account balance lookup
- A live activity log of the current session`,
		},
		{
			name: "how_to_use",
			text: `How to use:
1. Type 'buy 0.001' or 'sell 0.001' for a market order.
2. Type 'limit buy 0.001 30000' to rest an order at a price.
3. Type 'stop_limit sell 0.001 29000 28900' to trigger a limit order once the stop price is crossed.
4. Use the order ID from the reply with 'status' or 'cancel'.
5. Type 'live_log' to review what happened.`,
		},
		{
			name: "supported_markets",
			text: `Supported markets:
This bot trades a single USDⓈ-M perpetual futures pair, fixed when the service starts (BTCUSDT by default).`,
		},
		{
			name: "trading_tips",
			text: `Trading tips:
- Start with the minimum quantity until you are comfortable with the flow.
- Prefer limit orders when you care about the fill price.
- Place the stop price of a stop-limit order slightly before the limit price so it can fill.
- Check 'balance' before sizing an order; the exchange rejects orders without enough margin.`,
		},
		{
			name: "faq",
			text: `FAQ:
Q: Is this real money?  A: No, orders go to the futures testnet.
Q: Why was my quantity changed?  A: It was rounded to the precision the exchange accepts.
Q: Why was my order rejected?  A: The reply shows the exchange's error code and message, e.g. insufficient margin.
Q: Where is my order history?  A: The live log keeps the latest 50 events of this session.`,
		},

		// Social
		{
			name:    "hi",
			aliases: []string{"hey"},
			text:    "Hi there! Type 'help' to see what I can do.",
		},
		{
			name: "hello",
			text: "Hello! Ready to trade. Type 'help' for the list of commands.",
		},
		{
			name:    "thank_you",
			aliases: []string{"thanks", "thx"},
			text:    "You're welcome! Happy trading.",
		},
	}
}
