package telnet

import "fmt"

// Command is a TELNET command byte, the byte following IAC.
type Command byte

const (
	// RFC 1184
	EOF Command = 236 + iota
	SUSP
	ABORT
	// RFC 885
	EOR
	// RFC 854
	SE
	NOP
	DM
	BRK
	IP
	AO
	AYT
	EC
	EL
	GA
	SB
	WILL
	WONT
	DO
	DONT
	IAC
)

var commandNames = map[Command]string{
	EOF:   "EOF",
	SUSP:  "SUSP",
	ABORT: "ABORT",
	EOR:   "EOR",
	SE:    "SE",
	NOP:   "NOP",
	DM:    "DM",
	BRK:   "BRK",
	IP:    "IP",
	AO:    "AO",
	AYT:   "AYT",
	EC:    "EC",
	EL:    "EL",
	GA:    "GA",
	SB:    "SB",
	WILL:  "WILL",
	WONT:  "WONT",
	DO:    "DO",
	DONT:  "DONT",
	IAC:   "IAC",
}

func (c Command) String() string {
	if str, ok := commandNames[c]; ok {
		return str
	}
	return fmt.Sprintf("%d", c)
}

// Valid reports whether c is one of the known TELNET commands.
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// negotiation reports whether c is one of WILL, WONT, DO or DONT.
func (c Command) negotiation() bool {
	return c == WILL || c == WONT || c == DO || c == DONT
}

// Option is a TELNET option code.
type Option byte

const (
	TransmitBinary      Option = 0  // RFC 856
	Echo                Option = 1  // RFC 857
	Reconnect           Option = 2  // NIC 15391
	SuppressGoAhead     Option = 3  // RFC 858
	MessageSize         Option = 4  // NIC 15393
	Status              Option = 5  // RFC 859
	TimingMark          Option = 6  // RFC 860
	RCTE                Option = 7  // RFC 726
	OutputLineWidth     Option = 8  // NIC 20196
	OutputPageSize      Option = 9  // NIC 20197
	OutputCRDisposition Option = 10 // RFC 652
	OutputHTabStops     Option = 11 // RFC 653
	OutputHTabDisp      Option = 12 // RFC 654
	OutputFFDisposition Option = 13 // RFC 655
	OutputVTabStops     Option = 14 // RFC 656
	OutputVTabDisp      Option = 15 // RFC 657
	OutputLFDisposition Option = 16 // RFC 658
	ExtendedASCII       Option = 17 // RFC 698
	Logout              Option = 18 // RFC 727
	ByteMacro           Option = 19 // RFC 735
	DataEntryTerminal   Option = 20 // RFC 1043
	SUPDUP              Option = 21 // RFC 736
	SUPDUPOutput        Option = 22 // RFC 749
	SendLocation        Option = 23 // RFC 779
	TerminalType        Option = 24 // RFC 1091
	EndOfRecord         Option = 25 // RFC 885
	TACACSUserID        Option = 26 // RFC 927
	OutputMarking       Option = 27 // RFC 933
	TerminalLocation    Option = 28 // RFC 946
	Regime3270          Option = 29 // RFC 1041
	X3PAD               Option = 30 // RFC 1053
	NAWS                Option = 31 // RFC 1073
	TerminalSpeed       Option = 32 // RFC 1079
	RemoteFlowControl   Option = 33 // RFC 1372
	Linemode            Option = 34 // RFC 1184
	XDisplayLocation    Option = 35 // RFC 1096
	OldEnviron          Option = 36 // RFC 1408
	Authentication      Option = 37 // RFC 2941
	Encrypt             Option = 38 // RFC 2946
	NewEnviron          Option = 39 // RFC 1572
	ExtendedOptionsList Option = 255
)

var optionNames = map[Option]string{
	TransmitBinary:      "BINARY",
	Echo:                "ECHO",
	Reconnect:           "RCP",
	SuppressGoAhead:     "SUPPRESS-GO-AHEAD",
	MessageSize:         "NAMS",
	Status:              "STATUS",
	TimingMark:          "TIMING-MARK",
	RCTE:                "RCTE",
	OutputLineWidth:     "NAOL",
	OutputPageSize:      "NAOP",
	OutputCRDisposition: "NAOCRD",
	OutputHTabStops:     "NAOHTS",
	OutputHTabDisp:      "NAOHTD",
	OutputFFDisposition: "NAOFFD",
	OutputVTabStops:     "NAOVTS",
	OutputVTabDisp:      "NAOVTD",
	OutputLFDisposition: "NAOLFD",
	ExtendedASCII:       "EXTEND-ASCII",
	Logout:              "LOGOUT",
	ByteMacro:           "BYTE-MACRO",
	DataEntryTerminal:   "DATA-ENTRY-TERMINAL",
	SUPDUP:              "SUPDUP",
	SUPDUPOutput:        "SUPDUP-OUTPUT",
	SendLocation:        "SEND-LOCATION",
	TerminalType:        "TERMINAL-TYPE",
	EndOfRecord:         "END-OF-RECORD",
	TACACSUserID:        "TACACS-UID",
	OutputMarking:       "OUTPUT-MARKING",
	TerminalLocation:    "TTYLOC",
	Regime3270:          "3270-REGIME",
	X3PAD:               "X.3-PAD",
	NAWS:                "NAWS",
	TerminalSpeed:       "TSPEED",
	RemoteFlowControl:   "LFLOW",
	Linemode:            "LINEMODE",
	XDisplayLocation:    "XDISPLOC",
	OldEnviron:          "OLD-ENVIRON",
	Authentication:      "AUTHENTICATION",
	Encrypt:             "ENCRYPT",
	NewEnviron:          "NEW-ENVIRON",
	ExtendedOptionsList: "EXOPL",
}

func (o Option) String() string {
	if str, ok := optionNames[o]; ok {
		return str
	}
	return fmt.Sprintf("%d", o)
}

// Valid reports whether o is one of the known TELNET options.
func (o Option) Valid() bool {
	_, ok := optionNames[o]
	return ok
}
