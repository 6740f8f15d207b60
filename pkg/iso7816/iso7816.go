/*
Package iso7816 implements the ISO/IEC 7816-4 command layer used to drive a
secure element: APDU encoding, the T=0 continuation procedures and applet
sessions on basic or logical channels.

# Fundamentals

The communication with a card is strictly synchronous:
 1. The host sends a Command APDU (Header + optional Body).
 2. The card processes it and returns a Response APDU (optional Body + SW1 SW2).

Commands are encoded in short form only (at most 255 data bytes, Le up to 256).

# Continuation

A Client hides the status words asking the host to keep talking:
  - 0x61XX / 0x9FXX: XX bytes are waiting, fetched with GET RESPONSE.
  - 0x6CXX: wrong Le, the command is sent again with Le = XX.

Every exchange is kept in a Trace; the last transaction is the outcome.

# Sessions

A Session selects one application by AID and routes commands to its channel:

	client := iso7816.NewClient(card)
	session := iso7816.NewSession(client, aid, logger)
	if err := session.Select(false); err != nil {
	    return err
	}
	defer session.Close()

	cmd, _ := iso7816.Case2(0x00, 0x84, 0x00, 0x00, 0x10)
	resp, err := session.Transmit(cmd)

Selection failures carry the card status as a *StatusError:

	if sw, ok := iso7816.StatusOf(err); ok {
	    log.Printf("card said %s", sw.Verbose())
	}

# File Selection and FCI

SelectResult and ParseSelectData decode the File Control Information
returned by SELECT: FCP (tag '62'), FMD (tag '64'), the FCI wrapper (tag '6F')
and flat layouts.
*/
package iso7816
