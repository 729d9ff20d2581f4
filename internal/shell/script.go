package shell

// pageStartScript runs before any page script and starts a new bridge
// generation, dropping responses owed to the previous document.
const pageStartScript = `if (window.top === window && window.__pwashellPageStart) window.__pwashellPageStart();`

// navigationScript runs at the start of every document. It routes link
// clicks and window.open through the navigation controller, reports each
// committed page, and draws the "Done" bar for auth origins.
const navigationScript = `(function () {
  if (window.__pwashellNavInstalled) return;
  window.__pwashellNavInstalled = true;

  function go(url, kind) {
    return window.__pwashellNavigate(url, kind).then(function (inApp) {
      if (inApp && kind === "link") window.location.href = url;
    });
  }

  document.addEventListener("click", function (e) {
    if (e.defaultPrevented || e.button !== 0 || e.metaKey || e.ctrlKey) return;
    var a = e.target && e.target.closest ? e.target.closest("a[href]") : null;
    if (!a || a.hasAttribute("download")) return;
    var url = a.href;
    if (!url || url.indexOf("javascript:") === 0) return;
    if (a.origin === location.origin && a.pathname === location.pathname && a.search === location.search && a.hash) return;
    e.preventDefault();
    go(url, a.target === "_blank" ? "popup" : "link");
  }, true);

  var nativeOpen = window.open;
  window.open = function (url) {
    if (!url) return nativeOpen.apply(window, arguments);
    go(new URL(url, location.href).href, "popup");
    return null;
  };

  var BAR_ID = "__pwashell-toolbar";
  function toolbar(visible) {
    var bar = document.getElementById(BAR_ID);
    if (!visible) {
      if (bar) bar.remove();
      return;
    }
    if (bar || !document.body) return;
    bar = document.createElement("div");
    bar.id = BAR_ID;
    bar.setAttribute("style", "position:fixed;top:0;left:0;right:0;z-index:2147483647;display:flex;" +
      "align-items:center;justify-content:space-between;padding:6px 12px;background:#1f2328;color:#fff;" +
      "font:14px system-ui,sans-serif;box-shadow:0 1px 4px rgba(0,0,0,.3)");
    var label = document.createElement("span");
    label.textContent = location.host;
    var done = document.createElement("button");
    done.textContent = "Done";
    done.setAttribute("style", "background:#2f81f7;color:#fff;border:0;border-radius:4px;padding:4px 12px;cursor:pointer");
    done.addEventListener("click", function () { window.__pwashellDone(); });
    bar.appendChild(label);
    bar.appendChild(done);
    document.body.appendChild(bar);
  }
  window.__pwashellToolbar = toolbar;

  function loaded() {
    window.__pwashellPageLoaded(location.href).then(toolbar);
  }
  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", loaded);
  } else {
    loaded();
  }
})();
`
