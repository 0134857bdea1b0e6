/*
Package softfm receives FM broadcast radio in real time. It pulls IQ
samples from a tuner, demodulates them into audio and writes the audio to
an output.

Concept

The receiver is a pipeline of three stages:

    Acquisition - fetches IQ blocks from the Device;
    Control - demodulates blocks with the Demodulator;
    Delivery - writes audio blocks to the Sink.

Stages are connected with queue.Queue. Acquisition always runs in its own
goroutine, so the time between two device fetches stays short even if
demodulation stalls for a moment. Delivery runs in its own goroutine only
when output buffering is enabled, otherwise the control stage writes to
the sink directly.

Queues are unbounded. If demodulation is slower than the device, the input
queue grows and a warning is logged once, samples are never dropped.

Buffering

With buffering enabled, delivery waits until the output queue holds the
configured amount of audio before it starts writing, and again every time
the queue runs empty. It keeps interactive outputs from stuttering when
the output consumes audio slightly faster than it's produced.

Shutdown

Stop is a token shared by the stages. Once it's requested, acquisition
stops fetching and closes the input queue, the control loop returns and
delivery drains the output queue:

    stop := &softfm.Stop{}
    p := softfm.New(device, demod, sink, softfm.WithStop(stop))
    go func() {
        <-interrupted
        stop.Request()
    }()
    err := p.Run(context.Background())

A device failure can't be recovered from and terminates the process.
Output failures are logged and the pipeline keeps running.
*/
package softfm
