package telnet

// receiveCommand reacts to a command from the peer. WILL, WONT, DO and DONT
// carry an option, SB carries an option and its payload; anything else is
// only logged. Every reply goes through sendOnce so that a peer repeating
// itself cannot start a negotiation loop.
func (s *Session) receiveCommand(cmd Command, opt Option, payload []byte) error {
	if !cmd.Valid() {
		return InvalidCommandError(cmd)
	}
	switch {
	case cmd.negotiation():
		if !opt.Valid() {
			return InvalidOptionError(opt)
		}
		s.log.Debugf("RECV %s", formatCommand(cmd, opt, nil))
		s.ledger.record(Received, cmd, opt)
		switch cmd {
		case WILL:
			return s.receiveWill(opt)
		case WONT:
			return s.receiveWont(opt)
		case DO:
			return s.receiveDo(opt)
		case DONT:
			return s.receiveDont(opt)
		}
	case cmd == SB:
		if !opt.Valid() {
			return InvalidOptionError(opt)
		}
		s.log.Debugf("RECV %s", formatCommand(cmd, opt, payload))
		s.ledger.recordSub(Received, opt, payload)
	default:
		s.log.Debugf("RECV %s", formatCommand(cmd, 0, nil))
	}
	return nil
}

func (s *Session) receiveWill(opt Option) error {
	switch opt {
	case TransmitBinary:
		if s.mode.RxBinary {
			return nil
		}
		if s.ledger.has(Sent, DO, opt) {
			s.log.Debug("Enabling Binary Mode on receive")
			s.mode.RxBinary = true
			return nil
		}
		return s.sendOnce(DONT, opt)

	case Echo:
		if s.mode.EchoRemote {
			return nil
		}
		if !s.mode.EchoMode.wantsRemote() {
			s.log.Debug("Refusing Remote Echo")
			return s.sendOnce(DONT, opt)
		}
		s.log.Debug("Enabling Remote Echo")
		s.mode.EchoRemote = true
		if s.mode.EchoNet {
			s.log.Debug("Disabling Local Network Echo")
			s.mode.EchoNet = false
			if err := s.sendOnce(WONT, opt); err != nil {
				return err
			}
		}
		return s.sendOnce(DO, opt)

	case SuppressGoAhead:
		if s.mode.RxSGA {
			return nil
		}
		s.log.Debug("Enabling Suppress Go Ahead (SGA) on receive")
		s.mode.RxSGA = true
		if s.mode.TelnetBugs && !s.mode.TxSGA {
			s.log.Debug("Enabling Suppress Go Ahead (SGA) on transmit (workaround for broken TELNETs)")
			s.mode.TxSGA = true
			if err := s.sendOnce(WILL, opt); err != nil {
				return err
			}
		}
		return s.sendOnce(DO, opt)

	case ExtendedOptionsList:
		return s.sendOnce(DONT, opt)
	}
	// STATUS, TIMING-MARK and the rest are left alone
	return nil
}

func (s *Session) receiveWont(opt Option) error {
	switch opt {
	case TransmitBinary:
		if !s.mode.RxBinary {
			return nil
		}
		s.log.Debug("Disabling Binary Mode on receive")
		s.mode.RxBinary = false
		return s.sendOnce(DONT, opt)

	case Echo:
		if !s.mode.EchoRemote {
			return nil
		}
		s.mode.EchoRemote = false
		s.fallBackToLocalEcho("Remote won't ECHO, performing Local Echo")
		return s.sendOnce(DONT, opt)

	case SuppressGoAhead:
		if !s.mode.RxSGA {
			return nil
		}
		s.log.Debug("Disabling Suppress Go Ahead (SGA) on receive")
		s.mode.RxSGA = false
		if err := s.dropRemoteEcho(); err != nil {
			return err
		}
		if s.mode.TelnetBugs && s.mode.TxSGA {
			s.log.Debug("Disabling Suppress Go Ahead (SGA) on transmit (workaround for broken TELNETs)")
			s.mode.TxSGA = false
			if err := s.sendOnce(WONT, opt); err != nil {
				return err
			}
		}
		return s.sendOnce(DONT, opt)
	}
	return nil
}

func (s *Session) receiveDo(opt Option) error {
	switch opt {
	case TransmitBinary:
		if s.mode.TxBinary {
			return nil
		}
		if s.ledger.has(Sent, WILL, opt) {
			s.log.Debug("Enabling Binary Mode on transmit")
			s.mode.TxBinary = true
			return nil
		}
		return s.sendOnce(WONT, opt)

	case Echo:
		if s.mode.EchoNet {
			return nil
		}
		if s.mode.EchoRemote {
			s.log.Debug("Disabling Remote Echo to prevent Echo loop")
			s.mode.EchoRemote = false
			if err := s.sendOnce(DONT, opt); err != nil {
				return err
			}
		}
		if s.mode.EchoMode == EchoLocal || s.mode.EchoMode == EchoRemote {
			s.log.Debug("Enabling Local Echo")
			s.mode.EchoLocal = true
		}
		s.log.Debug("Enabling Local Network Echo")
		s.mode.EchoNet = true
		return s.sendOnce(WILL, opt)

	case SuppressGoAhead:
		if s.mode.TxSGA {
			return nil
		}
		s.log.Debug("Enabling Suppress Go Ahead (SGA) on transmit")
		s.mode.TxSGA = true
		if s.mode.TelnetBugs && !s.mode.RxSGA {
			s.log.Debug("Enabling Suppress Go Ahead (SGA) on receive (workaround for broken TELNETs)")
			s.mode.RxSGA = true
			if err := s.sendOnce(DO, opt); err != nil {
				return err
			}
		}
		return s.sendOnce(WILL, opt)

	case TimingMark:
		return s.sendOnce(WILL, opt)
	}
	// STATUS, EXOPL and everything we do not implement
	return s.sendOnce(WONT, opt)
}

func (s *Session) receiveDont(opt Option) error {
	switch opt {
	case TransmitBinary:
		if !s.mode.TxBinary {
			return nil
		}
		s.log.Debug("Disabling Binary Mode on transmit")
		s.mode.TxBinary = false
		return s.sendOnce(WONT, opt)

	case Echo:
		if !s.mode.EchoNet {
			return nil
		}
		s.log.Debug("Disabling Local Network Echo")
		s.mode.EchoNet = false
		return s.sendOnce(WONT, opt)

	case SuppressGoAhead:
		if !s.mode.TxSGA {
			return nil
		}
		s.log.Debug("Disabling Suppress Go Ahead (SGA) on transmit")
		s.mode.TxSGA = false
		if s.mode.TelnetBugs && s.mode.RxSGA {
			s.log.Debug("Disabling Suppress Go Ahead (SGA) on receive (workaround for broken TELNETs)")
			s.mode.RxSGA = false
			if err := s.sendOnce(DONT, opt); err != nil {
				return err
			}
			if err := s.dropRemoteEcho(); err != nil {
				return err
			}
		}
		return s.sendOnce(WONT, opt)
	}
	return nil
}

// dropRemoteEcho stops relying on the peer's echo once go-ahead is no
// longer suppressed in its direction.
func (s *Session) dropRemoteEcho() error {
	if !s.mode.EchoRemote {
		return nil
	}
	s.log.Debug("Disabling Remote Echo")
	s.mode.EchoRemote = false
	s.fallBackToLocalEcho("Enabling Local Echo")
	return s.sendOnce(DONT, Echo)
}

func (s *Session) fallBackToLocalEcho(msg string) {
	if s.mode.EchoMode == EchoRemote && !s.mode.EchoLocal {
		s.log.Debug(msg)
		s.mode.EchoLocal = true
	}
}
