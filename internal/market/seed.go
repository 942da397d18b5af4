package market

// DefaultUniverse returns the built-in asset set used in offline/demo mode
// and as the fallback when the first feed load fails. Prices reflect the
// snapshot the dashboard ships with; a live feed overwrites them on the
// first successful refresh.
func DefaultUniverse() []Quote {
	return []Quote{
		{Symbol: "AAPL", Name: "Apple Inc.", Price: 237.50, Change: 1.25, Volume: 45.2e6, MarketCap: 3.6e12, Sector: "Tech", PERatio: 34.5, High52Week: 237.29, Low52Week: 164.00, Type: AssetStock},
		{Symbol: "TSLA", Name: "Tesla Inc.", Price: 345.10, Change: 12.40, Volume: 98.1e6, MarketCap: 1.1e12, Sector: "Auto", PERatio: 85.2, High52Week: 358.29, Low52Week: 152.37, Type: AssetStock},
		{Symbol: "NVDA", Name: "NVIDIA Corp.", Price: 141.30, Change: -2.20, Volume: 320.5e6, MarketCap: 3.5e12, Sector: "Semi", PERatio: 66.1, High52Week: 153.94, Low52Week: 45.00, Type: AssetStock},
		{Symbol: "MSFT", Name: "Microsoft", Price: 425.12, Change: 2.10, Volume: 22.1e6, MarketCap: 3.1e12, Sector: "Tech", PERatio: 36.4, High52Week: 468.82, Low52Week: 309.45, Type: AssetStock},
		{Symbol: "AMD", Name: "Adv. Micro Dev", Price: 138.00, Change: 1.50, Volume: 55.3e6, MarketCap: 220e9, Sector: "Semi", PERatio: 120.5, High52Week: 227.30, Low52Week: 121.02, Type: AssetStock},
		{Symbol: "AMZN", Name: "Amazon.com", Price: 208.45, Change: 3.20, Volume: 38.2e6, MarketCap: 2.1e12, Sector: "Cons. Disc.", PERatio: 42.1, High52Week: 215.00, Low52Week: 145.00, Type: AssetStock},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", Price: 178.35, Change: -0.45, Volume: 24.1e6, MarketCap: 2.2e12, Sector: "Tech", PERatio: 24.1, High52Week: 191.75, Low52Week: 130.00, Type: AssetStock},

		{Symbol: "BTC/USD", Name: "Bitcoin", Price: 98450.00, Change: 2500.00, Volume: 55e9, MarketCap: 1.9e12, High52Week: 99800, Low52Week: 38000, Type: AssetCrypto},
		{Symbol: "ETH/USD", Name: "Ethereum", Price: 3350.20, Change: 45.00, Volume: 18e9, MarketCap: 400e9, High52Week: 4000, Low52Week: 2100, Type: AssetCrypto},
		{Symbol: "SOL/USD", Name: "Solana", Price: 245.60, Change: 8.20, Volume: 4.2e9, MarketCap: 110e9, High52Week: 260, Low52Week: 50, Type: AssetCrypto},
		{Symbol: "XRP/USD", Name: "Ripple", Price: 1.45, Change: 0.10, Volume: 3.2e9, MarketCap: 80e9, High52Week: 1.60, Low52Week: 0.42, Type: AssetCrypto},
		{Symbol: "BNB/USD", Name: "Binance Coin", Price: 660.50, Change: 5.50, Volume: 1.2e9, MarketCap: 95e9, High52Week: 720, Low52Week: 300, Type: AssetCrypto},
		{Symbol: "DOGE/USD", Name: "Dogecoin", Price: 0.38, Change: 0.02, Volume: 2e9, MarketCap: 55e9, High52Week: 0.45, Low52Week: 0.08, Type: AssetCrypto},
		{Symbol: "ADA/USD", Name: "Cardano", Price: 0.78, Change: -0.02, Volume: 800e6, MarketCap: 28e9, High52Week: 0.90, Low52Week: 0.30, Type: AssetCrypto},

		{Symbol: "EUR/USD", Name: "Euro / US Dollar", Price: 1.0450, Change: -0.0020, Type: AssetForex},
		{Symbol: "GBP/JPY", Name: "British Pound / Yen", Price: 195.45, Change: 0.30, Type: AssetForex},
		{Symbol: "USD/JPY", Name: "US Dollar / Yen", Price: 154.10, Change: 0.15, Type: AssetForex},
		{Symbol: "USD/CAD", Name: "US Dollar / Canadian", Price: 1.3980, Change: 0.0010, Type: AssetForex},
	}
}
