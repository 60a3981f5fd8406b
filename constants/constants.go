/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package constants holds the wire-level discriminators and token tables
// for the Interactive Brokers TWS/Gateway socket protocol: outbound and
// inbound message-kind ids, and the canonical string tokens for every
// enumerated domain field (security type, order type, time-in-force,
// and so on).
package constants

// --- Protocol version range ---
const (
	MinClientVersion = 100
	MaxClientVersion = 151
	APIStartVersion  = 2

	MinServerVerPriceMgmtAlgo = 151
)

// Outgoing holds every outbound message-kind discriminator the broker
// recognizes. Values and names come from the reference client; the Go
// port only wires the subset the client facade actually sends, but the
// full table is kept so later requests can be added without renumbering.
type Outgoing int32

const (
	OutReqMktData                  Outgoing = 1
	OutCancelMktData                Outgoing = 2
	OutPlaceOrder                   Outgoing = 3
	OutCancelOrder                  Outgoing = 4
	OutReqOpenOrders                Outgoing = 5
	OutReqAcctData                  Outgoing = 6
	OutReqExecutions                Outgoing = 7
	OutReqIds                       Outgoing = 8
	OutReqContractData              Outgoing = 9
	OutReqMktDepth                  Outgoing = 10
	OutCancelMktDepth               Outgoing = 11
	OutReqNewsBulletins              Outgoing = 12
	OutCancelNewsBulletins          Outgoing = 13
	OutSetServerLoglevel             Outgoing = 14
	OutReqAutoOpenOrders            Outgoing = 15
	OutReqAllOpenOrders              Outgoing = 16
	OutReqManagedAccts               Outgoing = 17
	OutReqFa                         Outgoing = 18
	OutReplaceFa                     Outgoing = 19
	OutReqHistoricalData            Outgoing = 20
	OutExerciseOptions               Outgoing = 21
	OutReqScannerSubscription       Outgoing = 22
	OutCancelScannerSubscription    Outgoing = 23
	OutReqScannerParameters         Outgoing = 24
	OutCancelHistoricalData         Outgoing = 25
	OutReqCurrentTime               Outgoing = 49
	OutReqRealTimeBars              Outgoing = 50
	OutCancelRealTimeBars           Outgoing = 51
	OutReqFundamentalData            Outgoing = 52
	OutCancelFundamentalData        Outgoing = 53
	OutReqCalcImpliedVolat           Outgoing = 54
	OutReqCalcOptionPrice            Outgoing = 55
	OutCancelCalcImpliedVolat       Outgoing = 56
	OutCancelCalcOptionPrice        Outgoing = 57
	OutReqGlobalCancel               Outgoing = 58
	OutReqMarketDataType             Outgoing = 59
	OutReqPositions                  Outgoing = 61
	OutReqAccountSummary             Outgoing = 62
	OutCancelAccountSummary          Outgoing = 63
	OutCancelPositions               Outgoing = 64
	OutVerifyRequest                 Outgoing = 65
	OutVerifyMessage                 Outgoing = 66
	OutQueryDisplayGroups            Outgoing = 67
	OutSubscribeToGroupEvents        Outgoing = 68
	OutUpdateDisplayGroup            Outgoing = 69
	OutUnsubscribeFromGroupEvents   Outgoing = 70
	OutStartApi                      Outgoing = 71
	OutVerifyAndAuthRequest         Outgoing = 72
	OutVerifyAndAuthMessage         Outgoing = 73
	OutReqPositionsMulti             Outgoing = 74
	OutCancelPositionsMulti          Outgoing = 75
	OutReqAccountUpdatesMulti        Outgoing = 76
	OutCancelAccountUpdatesMulti    Outgoing = 77
	OutReqSecDefOptParams            Outgoing = 78
	OutReqSoftDollarTiers            Outgoing = 79
	OutReqFamilyCodes                Outgoing = 80
	OutReqMatchingSymbols            Outgoing = 81
	OutReqMktDepthExchanges          Outgoing = 82
	OutReqSmartComponents            Outgoing = 83
	OutReqNewsArticle                Outgoing = 84
	OutReqNewsProviders              Outgoing = 85
	OutReqHistoricalNews             Outgoing = 86
	OutReqHeadTimestamp              Outgoing = 87
	OutReqHistogramData              Outgoing = 88
	OutCancelHistogramData           Outgoing = 89
	OutCancelHeadTimestamp           Outgoing = 90
	OutReqMarketRule                 Outgoing = 91
	OutReqPnl                        Outgoing = 92
	OutCancelPnl                     Outgoing = 93
	OutReqPnlSingle                  Outgoing = 94
	OutCancelPnlSingle               Outgoing = 95
	OutReqHistoricalTicks            Outgoing = 96
	OutReqTickByTickData             Outgoing = 97
	OutCancelTickByTickData          Outgoing = 98
	OutReqCompletedOrders            Outgoing = 99
)

// Incoming holds the inbound message-kind discriminators from 1
// (TickPrice) through 64 (AccountSummaryEnd); kinds above 64 are not
// listed.
type Incoming int32

const (
	InTickPrice                       Incoming = 1
	InTickSize                        Incoming = 2
	InOrderStatus                     Incoming = 3
	InErrMsg                          Incoming = 4
	InOpenOrder                       Incoming = 5
	InAcctValue                       Incoming = 6
	InPortfolioValue                  Incoming = 7
	InAcctUpdateTime                  Incoming = 8
	InNextValidId                     Incoming = 9
	InContractData                    Incoming = 10
	InExecutionData                   Incoming = 11
	InMarketDepth                     Incoming = 12
	InMarketDepthL2                   Incoming = 13
	InNewsBulletins                   Incoming = 14
	InManagedAccts                    Incoming = 15
	InReceiveFa                       Incoming = 16
	InHistoricalData                  Incoming = 17
	InBondContractData                Incoming = 18
	InScannerParameters                Incoming = 19
	InScannerData                     Incoming = 20
	InTickOptionComputation           Incoming = 21
	InTickGeneric                     Incoming = 45
	InTickString                      Incoming = 46
	InTickEfp                         Incoming = 47
	InCurrentTime                     Incoming = 49
	InRealTimeBars                    Incoming = 50
	InFundamentalData                 Incoming = 51
	InContractDataEnd                 Incoming = 52
	InOpenOrderEnd                    Incoming = 53
	InAcctDownloadEnd                 Incoming = 54
	InExecutionDataEnd                Incoming = 55
	InDeltaNeutralValidation          Incoming = 56
	InTickSnapshotEnd                 Incoming = 57
	InMarketDataType                  Incoming = 58
	InCommissionReport                Incoming = 59
	InPositionData                    Incoming = 61
	InPositionEnd                     Incoming = 62
	InAccountSummary                   Incoming = 63
	InAccountSummaryEnd               Incoming = 64
)

// --- SecType wire tokens ---
const (
	SecTypeStock          = "STK"
	SecTypeOption         = "OPT"
	SecTypeFuture         = "FUT"
	SecTypeOptionOnFuture = "FOP"
	SecTypeIndex          = "IND"
	SecTypeForex          = "CASH"
	SecTypeCombo          = "BAG"
	SecTypeWarrant        = "WAR"
	SecTypeBond           = "BOND"
	SecTypeCommodity      = "CMDTY"
	SecTypeNews           = "NEWS"
	SecTypeMutualFund     = "FUND"
)

// --- OrderType wire tokens ---
const (
	OrderTypeNone                 = "None"
	OrderTypeLimit                = "LMT"
	OrderTypeMarket               = "MKT"
	OrderTypeMarketIfTouched      = "MIT"
	OrderTypeMarketOnClose        = "MOC"
	OrderTypeMarketOnOpen         = "MOO"
	OrderTypePeggedToMarket       = "PEG MKT"
	OrderTypePeggedToStock        = "PEG STK"
	OrderTypePeggedToPrimary      = "REL"
	OrderTypeBoxTop               = "BOX TOP"
	OrderTypeLimitIfTouched       = "LIT"
	OrderTypeLimitOnClose         = "LOC"
	OrderTypePassiveRelative      = "PASSV REL"
	OrderTypePeggedToMidpoint     = "PEG MID"
	OrderTypeMarketToLimit        = "MTL"
	OrderTypeMarketWithProtection = "MKT PRT"
	OrderTypeStop                 = "STP"
	OrderTypeStopLimit            = "STP LMT"
	OrderTypeStopWithProtection   = "STP PRT"
	OrderTypeTrailingStop         = "TRAIL"
	OrderTypeTrailingStopLimit    = "TRAIL LIMIT"
	OrderTypeRelativeLimit        = "Rel + LMT"
	OrderTypeRelativeMarket       = "Rel + MKT"
	OrderTypeVolatility           = "VOL"
	OrderTypePeggedToBenchmark    = "PEG BENCH"
)

// --- TimeInForce wire tokens ---
const (
	TIFDay             = "DAY"
	TIFGoodTillCancel  = "GTC"
	TIFImmediateOrCancel = "IOC"
	TIFGoodUntilDate   = "GTD"
	TIFGoodOnOpen      = "OPG"
	TIFFillOrKill      = "FOK"
	TIFDayUntilCancel  = "DTC"
)

// --- Action / Side ---
const (
	ActionBuy       = "BUY"
	ActionSell      = "SELL"
	ActionSellShort = "SSELL"
	ActionSellLong  = "SLONG"

	SideLong  = "BOT"
	SideShort = "SLD"
)

// --- OptionRight ---
const (
	OptionRightUndefined = "0"
	OptionRightPut       = "PUT"
	OptionRightCall      = "CALL"
)

// --- SecIdType ---
const (
	SecIdTypeIsin  = "ISIN"
	SecIdTypeCusip = "CUSIP"
)

// --- ComboAction ---
const (
	ComboActionBuy       = "BUY"
	ComboActionSell      = "SELL"
	ComboActionShortSell = "SSELL"
)

// --- Rule80A ---
const (
	Rule80AIndividual            = "I"
	Rule80AAgency                = "A"
	Rule80AAgentOtherMember      = "W"
	Rule80AIndividualPTIA        = "J"
	Rule80AAgencyPTIA            = "U"
	Rule80AAgentOtherMemberPTIA  = "M"
	Rule80AIndividualPT          = "K"
	Rule80AAgencyPT              = "Y"
	Rule80AAgentOtherMemberPT    = "N"
)

// --- OrderOpenClose / Origin / HedgeType / ClearingIntent ---
const (
	OrderOpenCloseOpen  = "O"
	OrderOpenCloseClose = "C"

	OriginCustomer = "0"
	OriginFirm     = "1"
	OriginUnknown  = "2"

	HedgeTypeUndefined = "?"
	HedgeTypeDelta     = "D"
	HedgeTypeBeta      = "B"
	HedgeTypeForex     = "F"
	HedgeTypePair      = "P"

	ClearingIntentIB   = "IB"
	ClearingIntentAway = "Away"
	ClearingIntentPTA  = "PTA"
)

// --- Generic tick list tokens, used to build ReqMktData's additional-ticks field ---
const (
	GenericTickShortableData     = "236"
	GenericTickHistoricData      = "165"
	GenericTickOptionHistoricVol = "10"
	GenericTickOptionImpliedVol  = "106"
	GenericTickOptionOpenInt     = "101"
	GenericTickAuctionData       = "225"
	GenericTickOptionVolume      = "100"
)

// HistoricalDataAdjustedToken is the "what to show" value for
// split/dividend-adjusted historical bar requests.
const HistoricalDataAdjustedToken = "ADJUSTED_LAST"

// MaxDoubleSentinel is the literal the broker sometimes sends in place
// of an absent optional numeric field.
const MaxDoubleSentinel = "1.7976931348623157E308"

// HandshakePrefix is the unframed literal written first on every
// connection, before any length-prefixed frame.
const HandshakePrefix = "API\x00"

// KeepaliveIntervalSeconds is how often the keepalive task enqueues ReqCurrentTime.
const KeepaliveIntervalSeconds = 60

// WriterQueueCapacity / RegistrationQueueCapacity size the two bounded
// channels the dispatch core owns.
const (
	WriterQueueCapacity       = 64
	RegistrationQueueCapacity = 100
)

// HandshakeMaxReads bounds how many frames connect() will read while
// looking for the 3-field handshake response.
const HandshakeMaxReads = 10
