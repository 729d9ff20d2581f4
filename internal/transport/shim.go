package transport

// InitScript is the page-side half of the bridge, injected before any page
// script runs. It exposes window.pwashell.call(module, action, payload),
// which resolves with the response data or rejects with its error, and
// window.pwashell.on(type, fn) for native events.
//
// Messages leave the page through the first transport found:
// window.__pwashellPost (desktop and headless hosts), a WKWebView message
// handler named "pwashell", or an Android JavascriptInterface named
// PwaShellAndroid.
func InitScript() string {
	return initScript
}

const initScript = `(function () {
  var root = typeof window !== "undefined" ? window : globalThis;
  if (root.__pwashell) return;

  var pending = {};
  var listeners = {};
  var seq = 0;

  function post(json) {
    if (typeof root.__pwashellPost === "function") {
      return root.__pwashellPost(json);
    }
    var wk = root.webkit && root.webkit.messageHandlers && root.webkit.messageHandlers.pwashell;
    if (wk) {
      return wk.postMessage(json);
    }
    if (root.PwaShellAndroid && typeof root.PwaShellAndroid.postMessage === "function") {
      return root.PwaShellAndroid.postMessage(json);
    }
    throw new Error("pwashell: no native bridge available");
  }

  function nextId() {
    seq += 1;
    return "c" + seq + "-" + Date.now().toString(36);
  }

  function call(module, action, payload) {
    return new Promise(function (resolve, reject) {
      var id = nextId();
      pending[id] = { resolve: resolve, reject: reject };
      try {
        post(JSON.stringify({
          id: id,
          module: module,
          action: action,
          payload: payload === undefined ? null : payload
        }));
      } catch (err) {
        delete pending[id];
        reject(err);
      }
    });
  }

  function decode(input) {
    return typeof input === "string" ? JSON.parse(input) : input;
  }

  function receive(input) {
    var resp = decode(input);
    var p = pending[resp.id];
    if (!p) return false;
    delete pending[resp.id];
    if (resp.success) {
      p.resolve(resp.data === undefined ? null : resp.data);
    } else {
      var err = new Error(resp.error || "pwashell: call failed");
      err.id = resp.id;
      p.reject(err);
    }
    return true;
  }

  function fire(type, data) {
    var list = (listeners[type] || []).concat(listeners["*"] || []);
    for (var i = 0; i < list.length; i++) {
      try {
        list[i](data, type);
      } catch (err) {
        if (typeof console !== "undefined") console.error(err);
      }
    }
  }

  function dispatchEvent(input) {
    var ev = decode(input);
    var data = ev.data === undefined ? null : ev.data;
    fire(ev.type, data);
    if (typeof document !== "undefined" && typeof CustomEvent === "function") {
      document.dispatchEvent(new CustomEvent("pwashell:" + ev.type, { detail: data }));
    }
  }

  function on(type, fn) {
    (listeners[type] = listeners[type] || []).push(fn);
    return function () {
      var list = listeners[type] || [];
      var i = list.indexOf(fn);
      if (i >= 0) list.splice(i, 1);
    };
  }

  function pendingCount() {
    return Object.keys(pending).length;
  }

  root.__pwashell = {
    call: call,
    on: on,
    receive: receive,
    dispatchEvent: dispatchEvent,
    pending: pendingCount
  };
  root.pwashell = root.__pwashell;
})();
`
